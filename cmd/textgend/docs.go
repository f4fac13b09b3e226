package main

// General API documentation for swaggo. Regenerate with
// `swag init -g cmd/textgend/docs.go -o docs`.
//
// @title           textgend API
// @version         1.0
// @description     HTTP API for text completion on a local GGUF model.
//
// @contact.name   textgend maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http

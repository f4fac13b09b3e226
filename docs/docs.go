// Package docs holds the OpenAPI document served under /swagger/ when the
// server is built with -tags=swagger. Regenerate with `swag init -g cmd/textgend/docs.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {"name": "textgend maintainers"},
        "license": {"name": "MIT", "url": "https://opensource.org/licenses/MIT"},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/v1/completions": {
            "post": {
                "description": "Generates text for a prompt. With stream=true the response is a text/event-stream of CompletionChunk events terminated by [DONE].",
                "consumes": ["application/json"],
                "produces": ["application/json", "text/event-stream"],
                "tags": ["completions"],
                "summary": "Create a completion",
                "parameters": [
                    {"description": "Completion request", "name": "request", "in": "body", "required": true,
                     "schema": {"$ref": "#/definitions/types.CompletionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.CompletionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "504": {"description": "Gateway Timeout", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/v1/tokenize": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["completions"],
                "summary": "Count prompt tokens",
                "parameters": [
                    {"description": "Prompt to tokenize", "name": "request", "in": "body", "required": true,
                     "schema": {"$ref": "#/definitions/types.TokenizeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.TokenizeResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/v1/models": {
            "get": {
                "produces": ["application/json"],
                "tags": ["models"],
                "summary": "List models",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelsResponse"}}}
            }
        },
        "/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["status"],
                "summary": "Server status",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}}
            }
        }
    },
    "definitions": {
        "types.CompletionRequest": {
            "type": "object",
            "properties": {
                "prompt": {"type": "string", "example": "Write a haiku about the ocean."},
                "max_tokens": {"type": "integer", "example": 128},
                "stop": {"type": "array", "items": {"type": "string"}, "example": ["\n\n", "END"]},
                "temperature": {"type": "number", "example": 0.7},
                "top_p": {"type": "number", "example": 0.9},
                "presence_penalty": {"type": "number", "example": 0},
                "frequency_penalty": {"type": "number", "example": 0},
                "stream": {"type": "boolean", "example": false}
            }
        },
        "types.CompletionChoice": {
            "type": "object",
            "properties": {
                "text": {"type": "string"},
                "index": {"type": "integer"},
                "finish_reason": {"type": "string", "enum": ["null", "stop", "length"]}
            }
        },
        "types.TokenCounter": {
            "type": "object",
            "properties": {
                "prompt_tokens": {"type": "integer"},
                "completion_tokens": {"type": "integer"},
                "total_tokens": {"type": "integer"}
            }
        },
        "types.CompletionResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "object": {"type": "string", "example": "text_completion"},
                "created": {"type": "integer"},
                "model": {"type": "string"},
                "choices": {"type": "array", "items": {"$ref": "#/definitions/types.CompletionChoice"}},
                "usage": {"$ref": "#/definitions/types.TokenCounter"}
            }
        },
        "types.TokenizeRequest": {
            "type": "object",
            "properties": {"prompt": {"type": "string", "example": "Hello world"}}
        },
        "types.TokenizeResponse": {
            "type": "object",
            "properties": {"count": {"type": "integer", "example": 3}}
        },
        "types.Model": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "object": {"type": "string"},
                "name": {"type": "string"},
                "path": {"type": "string"},
                "size_bytes": {"type": "integer"}
            }
        },
        "types.ModelsResponse": {
            "type": "object",
            "properties": {
                "object": {"type": "string", "example": "list"},
                "data": {"type": "array", "items": {"$ref": "#/definitions/types.Model"}}
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "state": {"type": "string"},
                "model": {"type": "string"},
                "error": {"type": "string"},
                "queue_len": {"type": "integer"},
                "inflight": {"type": "integer"},
                "max_tokens": {"type": "integer"},
                "completions_total": {"type": "integer"},
                "prompt_tokens_total": {"type": "integer"},
                "completion_tokens_total": {"type": "integer"},
                "uptime_seconds": {"type": "integer"},
                "server_time_unix": {"type": "integer"}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "textgend API",
	Description:      "HTTP API for text completion on a local GGUF model.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

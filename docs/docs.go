// Package docs holds the OpenAPI description served at /swagger/*any.
// Regenerate with: swag init -g internal/http/router.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/sessions": {
            "get": {"tags": ["Sessions"], "summary": "List sessions (paginated)", "operationId": "listSessions",
                "parameters": [
                    {"type": "string", "name": "X-User-ID", "in": "header"},
                    {"type": "integer", "default": 1, "name": "page", "in": "query"},
                    {"type": "integer", "default": 20, "name": "page_size", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "304": {"description": "Not Modified"}}},
            "post": {"tags": ["Sessions"], "summary": "Open a new assistant session", "operationId": "createSession",
                "parameters": [
                    {"type": "string", "name": "X-User-ID", "in": "header"},
                    {"type": "string", "name": "X-User-Role", "in": "header"}
                ],
                "responses": {"201": {"description": "Created"}}}
        },
        "/sessions/{id}/title": {
            "put": {"tags": ["Sessions"], "summary": "Rename a session", "operationId": "updateSessionTitle",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Session not found"}}}
        },
        "/sessions/{id}/messages": {
            "get": {"tags": ["Messages"], "summary": "List the transcript of a session", "operationId": "listMessages",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Session not found"}}},
            "post": {"tags": ["Messages"], "summary": "Ask the assistant", "operationId": "postMessage",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "string", "name": "Idempotency-Key", "in": "header"}
                ],
                "responses": {"200": {"description": "Assistant reply"}, "400": {"description": "Bad request"}, "404": {"description": "Session not found"}, "422": {"description": "Idempotency key reused for a different query"}, "429": {"description": "Rate limited"}}}
        },
        "/records/{kind}": {
            "get": {"tags": ["Records"], "summary": "Search a data table", "operationId": "listRecords",
                "parameters": [
                    {"enum": ["skus", "claims", "sales", "dealers"], "type": "string", "name": "kind", "in": "path", "required": true},
                    {"type": "string", "name": "q", "in": "query"},
                    {"type": "integer", "default": 50, "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Unknown table"}}}
        },
        "/analytics/summary": {
            "get": {"tags": ["Analytics"], "summary": "Role-scoped dashboard summary", "operationId": "analyticsSummary",
                "parameters": [
                    {"type": "string", "name": "X-User-Role", "in": "header"},
                    {"type": "string", "name": "X-Dealer-ID", "in": "header"},
                    {"type": "string", "name": "X-User-Region", "in": "header"}
                ],
                "responses": {"200": {"description": "OK"}}}
        },
        "/suggestions": {
            "get": {"tags": ["Suggestions"], "summary": "Suggest canned queries", "operationId": "suggestions",
                "parameters": [
                    {"type": "string", "name": "q", "in": "query"},
                    {"type": "integer", "default": 5, "name": "k", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}}
        },
        "/settings/model-key": {
            "get": {"tags": ["Settings"], "summary": "Model credential status", "operationId": "getModelKey",
                "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Settings"], "summary": "Configure the model credential", "operationId": "putModelKey",
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad request"}}},
            "delete": {"tags": ["Settings"], "summary": "Remove the model credential", "operationId": "deleteModelKey",
                "responses": {"204": {"description": "No Content"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Dealer Assistant API",
	Description:      "Conversational and tabular access to SKUs, claims, sales and dealers.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

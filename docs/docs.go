// Package docs registers the OpenAPI description served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/triggers": {
            "get": {
                "produces": ["application/json"],
                "tags": ["triggers"],
                "summary": "List configured triggers",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.TriggerListResponse"}}
                }
            }
        },
        "/triggers/periodic": {
            "put": {
                "produces": ["application/json"],
                "tags": ["triggers"],
                "summary": "Enable the 12-hour periodic check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.TriggerListResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["triggers"],
                "summary": "Disable the periodic check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.TriggerListResponse"}}
                }
            }
        },
        "/triggers/fixed": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["triggers"],
                "summary": "Add a daily fixed-time check",
                "parameters": [
                    {"description": "Time of day", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.FixedTimeRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.TriggerListResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["triggers"],
                "summary": "Remove every fixed-time check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.TriggerListResponse"}}
                }
            }
        },
        "/triggers/fixed/{time}": {
            "delete": {
                "produces": ["application/json"],
                "tags": ["triggers"],
                "summary": "Remove one fixed-time check",
                "parameters": [
                    {"type": "string", "description": "Time of day as HH:MM", "name": "time", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.TriggerListResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/state/reset": {
            "post": {
                "tags": ["triggers"],
                "summary": "Cancel every trigger and clear persisted state",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/checks": {
            "post": {
                "produces": ["application/json"],
                "tags": ["checks"],
                "summary": "Run a version check now",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.CheckResult"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/checks/latest": {
            "get": {
                "produces": ["application/json"],
                "tags": ["checks"],
                "summary": "Most recent check result",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.CheckResult"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/installed": {
            "get": {
                "produces": ["application/json"],
                "tags": ["installed"],
                "summary": "Discover installed packages by keyword",
                "parameters": [
                    {"type": "array", "items": {"type": "string"}, "collectionFormat": "multi", "name": "keyword", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/InstalledPackage"}}}
                }
            }
        }
    },
    "definitions": {
        "InstalledPackage": {
            "type": "object",
            "properties": {
                "identifier": {"type": "string"},
                "version": {"type": "string"},
                "label": {"type": "string"}
            }
        },
        "models.FixedTimeRequest": {
            "type": "object",
            "required": ["hour", "minute"],
            "properties": {
                "hour": {"type": "integer", "example": 9},
                "minute": {"type": "integer", "example": 30}
            }
        },
        "models.TriggerListResponse": {
            "type": "object",
            "properties": {
                "state": {"type": "object"},
                "triggers": {"type": "array", "items": {"type": "object"}}
            }
        },
        "models.CheckResult": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "source": {"type": "string", "example": "manual"},
                "status": {"type": "string"}
            }
        },
        "response.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "string"},
                "details": {"type": "object"},
                "trace_id": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Version Watch API",
	Description:      "Schedules checks comparing the installed version of a target application with the latest published version.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

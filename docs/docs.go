// Package docs registers the Travelenda API description with swag.
// Regenerate with: swag init -g server/main.go -o docs
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
        "/search": {
            "post": {
                "tags": ["search"],
                "summary": "Validate a search form and build the results query",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}
                }
            }
        },
        "/destinations": {
            "get": {
                "tags": ["destinations"],
                "summary": "Autocomplete destinations",
                "parameters": [{"type": "string", "name": "q", "in": "query", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}
                }
            }
        },
        "/hotels": {
            "get": {
                "tags": ["hotels"],
                "summary": "Search hotels for a stay",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}
                }
            }
        },
        "/hotels/{id}": {
            "get": {
                "tags": ["hotels"],
                "summary": "Hotel details with priced room rates",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}
                }
            }
        },
        "/checkout": {
            "post": {
                "tags": ["checkout"],
                "summary": "Start a checkout for a room rate",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}
                }
            }
        },
        "/checkout/{id}": {
            "get": {
                "tags": ["checkout"],
                "summary": "Current state of a checkout",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}
                }
            }
        },
        "/checkout/{id}/guest": {
            "post": {
                "tags": ["checkout"],
                "summary": "Submit guest details",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}
                }
            }
        },
        "/checkout/{id}/back": {
            "post": {
                "tags": ["checkout"],
                "summary": "Return from payment to guest details",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}
                }
            }
        },
        "/checkout/{id}/payment": {
            "post": {
                "tags": ["checkout"],
                "summary": "Submit payment and book",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "504": {"description": "Gateway Timeout", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}
                }
            }
        },
        "/bookings/{id}": {
            "get": {
                "tags": ["bookings"],
                "summary": "Booking confirmation",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}
                }
            }
        },
        "/bookings/{id}/export": {
            "get": {
                "tags": ["bookings"],
                "summary": "Download the confirmation as text",
                "produces": ["text/plain"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"type": "string"}}}
            }
        },
        "/bookings/{id}/share": {
            "get": {
                "tags": ["bookings"],
                "summary": "Share payload for a booking",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}}
            }
        },
        "/bookings/{id}/cancel": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["bookings"],
                "summary": "Cancel a booking",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}
                }
            }
        },
        "/users/bookings": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["bookings"],
                "summary": "Bookings of the signed-in user",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}}
            }
        },
        "/auth/signup": {
            "post": {
                "tags": ["auth"],
                "summary": "Create an account",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}
                }
            }
        },
        "/auth/signin": {
            "post": {
                "tags": ["auth"],
                "summary": "Sign in with email and password",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}
                }
            }
        },
        "/auth/reset-password": {
            "post": {
                "tags": ["auth"],
                "summary": "Send a password reset email",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}}
            }
        },
        "/auth/signout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["auth"],
                "summary": "Sign out",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}}
            }
        },
        "/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["auth"],
                "summary": "Current session and profile",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}}
            }
        },
        "/auth/profile": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["auth"],
                "summary": "Update the profile",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}}
            }
        }
    },
    "definitions": {
        "response.StandardApiResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "status_code": {"type": "integer"},
                "message": {"type": "string"},
                "data": {},
                "errors": {}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Travelenda API",
	Description:      "Hotel search, checkout and booking management.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Room Booking API",
        "description": "Hourly room slot reservations with weekly timetables",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Login and current user"},
        {"name": "Rooms", "description": "Room directory and week timetables"},
        {"name": "Slots", "description": "Reserve, cancel and check in to hourly slots"},
        {"name": "Admin", "description": "Slot blocking for super admins"},
        {"name": "Ops", "description": "Health, readiness and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Ops"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "tags": ["Ops"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "Dependencies reachable"},
                    "503": {"description": "A dependency is down"}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Ops"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {"200": {"description": "Metrics in exposition format"}}
            }
        },
        "/api/v1/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token issued", "schema": {"$ref": "#/definitions/Envelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/Envelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/api/v1/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Get current user",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/api/v1/rooms": {
            "get": {
                "tags": ["Rooms"],
                "summary": "List rooms available to the current user",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/api/v1/rooms/{id}/timetable": {
            "get": {
                "tags": ["Rooms"],
                "summary": "Week timetable",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "integer", "required": true},
                    {"in": "query", "name": "week", "type": "integer", "description": "Week offset, 0 is the current week"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}},
                    "400": {"description": "Invalid room id or week", "schema": {"$ref": "#/definitions/Envelope"}},
                    "404": {"description": "Unknown room", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/api/v1/rooms/{id}/timetable/export": {
            "get": {
                "tags": ["Rooms"],
                "summary": "Export week timetable",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"in": "path", "name": "id", "type": "integer", "required": true},
                    {"in": "query", "name": "week", "type": "integer"},
                    {"in": "query", "name": "format", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Attachment"},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/Envelope"}},
                    "404": {"description": "Unknown room", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/api/v1/slots/{key}/occupy": {
            "post": {
                "tags": ["Slots"],
                "summary": "Reserve a slot",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "key", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "Reserved", "schema": {"$ref": "#/definitions/Envelope"}},
                    "400": {"description": "Malformed key", "schema": {"$ref": "#/definitions/Envelope"}},
                    "403": {"description": "Not reservable", "schema": {"$ref": "#/definitions/Envelope"}},
                    "404": {"description": "Unknown room", "schema": {"$ref": "#/definitions/Envelope"}},
                    "409": {"description": "Slot busy, retry after the Retry-After hint", "schema": {"$ref": "#/definitions/Envelope"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/api/v1/slots/{key}": {
            "delete": {
                "tags": ["Slots"],
                "summary": "Cancel a reservation",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "key", "type": "string", "required": true}],
                "responses": {
                    "204": {"description": "Cancelled"},
                    "403": {"description": "Not the holder", "schema": {"$ref": "#/definitions/Envelope"}},
                    "404": {"description": "Nothing reserved", "schema": {"$ref": "#/definitions/Envelope"}},
                    "409": {"description": "Slot busy", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/api/v1/slots/{key}/check-in": {
            "post": {
                "tags": ["Slots"],
                "summary": "Check in to a reservation",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "key", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "Checked in", "schema": {"$ref": "#/definitions/Envelope"}},
                    "403": {"description": "Not allowed or too late", "schema": {"$ref": "#/definitions/Envelope"}},
                    "404": {"description": "Nothing reserved", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/api/v1/admin/slots/{key}/disable": {
            "post": {
                "tags": ["Admin"],
                "summary": "Disable a slot",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "key", "type": "string", "required": true},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/DisableSlotRequest"}}
                ],
                "responses": {
                    "200": {"description": "Disabled", "schema": {"$ref": "#/definitions/Envelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/Envelope"}},
                    "403": {"description": "Not a super admin", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            },
            "delete": {
                "tags": ["Admin"],
                "summary": "Re-enable a slot",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "key", "type": "string", "required": true}],
                "responses": {
                    "204": {"description": "Enabled"},
                    "404": {"description": "Slot is not disabled", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
            }
        },
        "Envelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "DisableSlotRequest": {
            "type": "object",
            "required": ["variant"],
            "properties": {
                "variant": {"type": "string", "enum": ["RED", "WARM", "COOL"]},
                "reason": {"type": "string", "maxLength": 64}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}

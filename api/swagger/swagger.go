package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Camp Enrollment Dashboard API",
        "description": "Enrollment reporting, attendance and group management for the camp season",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "in": "header", "name": "Authorization"}
    },
    "tags": [
        {"name": "Authentication", "description": "Operator login and profile"},
        {"name": "Dashboard", "description": "Enrollment snapshot and season history"},
        {"name": "Attendance", "description": "Rosters, marking, summaries and trends"},
        {"name": "Groups", "description": "Weekly camper group assignments"},
        {"name": "Persons", "description": "Cached camper and guardian details"},
        {"name": "Settings", "description": "Program goals and operator assignments"},
        {"name": "FieldTrips", "description": "Trip venues and weekly bookings"},
        {"name": "Exports", "description": "CSV and PDF report generation"},
        {"name": "Users", "description": "Operator account management"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate operator",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current operator profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/change-password": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Change password",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChangePasswordRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Enrollment dashboard snapshot",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard/refresh": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Queue a snapshot rebuild",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "202": {"description": "Accepted"}
                }
            }
        },
        "/dashboard/history/pace": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Season-over-season enrollment pace",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "month", "in": "query", "type": "integer"},
                    {"name": "day", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard/history/milestones": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Enrollment milestone dates per season",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard/history/weekly": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Season-over-season cumulative series",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/campers": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Program roster for one week",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "program", "in": "query", "required": true, "type": "string"},
                    {"name": "week", "in": "query", "required": true, "type": "integer"},
                    {"name": "date", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/kc": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Before/after care roster for one day, split by early-childhood programs",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "week", "in": "query", "required": true, "type": "integer"},
                    {"name": "date", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/records": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Mark one camper at one checkpoint",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MarkRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "423": {"description": "Attendance locked"}
                }
            }
        },
        "/attendance/records/batch": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Mark many campers in one call",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "array", "items": {"$ref": "#/definitions/MarkRequest"}}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/attendance/summary": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Attendance summary across programs for one day",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "date", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/trends": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Daily attendance rate over a date range",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "program", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/detail/{personID}": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Full attendance history for one camper",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "personID", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/week-info": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Season calendar and current week",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/sync-bac": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Force a before/after care resync",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/checkpoints": {
            "get": {
                "tags": ["Attendance"],
                "summary": "List active attendance checkpoints",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Attendance"],
                "summary": "Add an attendance checkpoint",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CheckpointRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/groups": {
            "get": {
                "tags": ["Groups"],
                "summary": "List group assignments",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "program", "in": "query", "type": "string"},
                    {"name": "week", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Groups"],
                "summary": "Assign a camper to a group number",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetGroupRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/persons": {
            "get": {
                "tags": ["Persons"],
                "summary": "Person details for a set of IDs",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "ids", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/settings/programs": {
            "get": {
                "tags": ["Settings"],
                "summary": "Program settings merged with season defaults",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Settings"],
                "summary": "Override one program's goal and weeks",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ProgramSettingRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/export/enrollment.csv": {
            "get": {
                "tags": ["Exports"],
                "summary": "Generate the enrollment report as CSV",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/export/enrollment.pdf": {
            "get": {
                "tags": ["Exports"],
                "summary": "Generate the enrollment report as PDF",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a generated report by signed token",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List operator accounts",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Users"],
                "summary": "Create an operator account",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateUserRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["username", "password"]
        },
        "ChangePasswordRequest": {
            "type": "object",
            "properties": {
                "old_password": {"type": "string"},
                "new_password": {"type": "string"}
            },
            "required": ["old_password", "new_password"]
        },
        "MarkRequest": {
            "type": "object",
            "properties": {
                "person_id": {"type": "integer"},
                "program": {"type": "string"},
                "week": {"type": "integer"},
                "date": {"type": "string"},
                "checkpoint_id": {"type": "integer"},
                "status": {"type": "string"},
                "notes": {"type": "string"}
            },
            "required": ["person_id", "program", "week", "date", "checkpoint_id", "status"]
        },
        "CheckpointRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "time_label": {"type": "string"}
            },
            "required": ["name"]
        },
        "SetGroupRequest": {
            "type": "object",
            "properties": {
                "program": {"type": "string"},
                "week": {"type": "integer"},
                "person_id": {"type": "integer"},
                "group": {"type": "integer"},
                "propagate": {"type": "boolean", "default": true}
            },
            "required": ["program", "week", "person_id"]
        },
        "ProgramSettingRequest": {
            "type": "object",
            "properties": {
                "program_name": {"type": "string"},
                "goal": {"type": "number"},
                "weeks_offered": {"type": "integer"},
                "weeks_active": {"type": "string"},
                "active": {"type": "boolean"}
            },
            "required": ["program_name"]
        },
        "CreateUserRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string", "enum": ["admin", "viewer", "unit_leader"]},
                "permissions": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["username", "password", "role"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
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

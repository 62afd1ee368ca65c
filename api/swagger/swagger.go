package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable API",
        "description": "Course occurrences, week rendering, partial-week rescheduling and undo",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Terms", "description": "Teaching terms and their week calendar"},
        {"name": "Occurrences", "description": "Course occurrences and conflict checks"},
        {"name": "Reschedule", "description": "Moving weeks of an occurrence and undoing it"},
        {"name": "Timetable", "description": "Rendered weeks, exports and batch durations"},
        {"name": "Observability", "description": "Service counters"}
    ],
    "paths": {
        "/terms": {
            "get": {
                "tags": ["Terms"],
                "summary": "List terms",
                "parameters": [
                    {"name": "isActive", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Terms"],
                "summary": "Create term",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTermRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/terms/{id}": {
            "get": {
                "tags": ["Terms"],
                "summary": "Get term",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Terms"],
                "summary": "Delete term",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "412": {"description": "Term still has occurrences", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/terms/{id}/occurrences": {
            "get": {
                "tags": ["Occurrences"],
                "summary": "List occurrences of a term",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/terms/{id}/timetable": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Render a week",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "week", "in": "query", "type": "integer"},
                    {"name": "hideNonCurrent", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/terms/{id}/timetable/export": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Export a week",
                "produces": ["text/csv", "application/pdf", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "week", "in": "query", "type": "integer"},
                    {"name": "hideNonCurrent", "in": "query", "type": "boolean"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf", "xlsx"]}
                ],
                "responses": {
                    "200": {"description": "Document", "schema": {"type": "file"}},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/terms/{id}/timetable/exports": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Store a week export behind a signed link",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "week", "in": "query", "type": "integer"},
                    {"name": "hideNonCurrent", "in": "query", "type": "boolean"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf", "xlsx"]}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Saved exports disabled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{token}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Download a stored export",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Document", "schema": {"type": "file"}},
                    "404": {"description": "Unknown or purged export", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "410": {"description": "Link expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/terms/{id}/durations": {
            "put": {
                "tags": ["Timetable"],
                "summary": "Set the span of every course in a term",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DurationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/occurrences": {
            "post": {
                "tags": ["Occurrences"],
                "summary": "Create occurrence",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OccurrenceRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/occurrences/{id}": {
            "get": {
                "tags": ["Occurrences"],
                "summary": "Get occurrence",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Occurrences"],
                "summary": "Replace occurrence",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OccurrenceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Occurrences"],
                "summary": "Delete occurrence",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/occurrences/{id}/reschedule/preview": {
            "post": {
                "tags": ["Reschedule"],
                "summary": "Preview a reschedule",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RescheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/occurrences/{id}/reschedule": {
            "post": {
                "tags": ["Reschedule"],
                "summary": "Reschedule an occurrence",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RescheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Unconfirmed conflicts or a concurrent change", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Storage unavailable, nothing was written", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/occurrences/conflicts": {
            "post": {
                "tags": ["Occurrences"],
                "summary": "Check a placement for conflicts",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ConflictCheckRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lineages/{id}": {
            "get": {
                "tags": ["Reschedule"],
                "summary": "Show a lineage",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lineages/{id}/undo": {
            "post": {
                "tags": ["Reschedule"],
                "summary": "Undo the reschedules of a lineage",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/UndoRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Nothing to undo or no placement to restore", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": ["Observability"],
                "summary": "Service counters",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateTermRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "startDate": {"type": "string", "format": "date-time"},
                "totalWeeks": {"type": "integer"},
                "sectionsPerDay": {"type": "integer"},
                "isActive": {"type": "boolean"}
            },
            "required": ["name", "startDate", "totalWeeks", "sectionsPerDay"]
        },
        "OccurrenceRequest": {
            "type": "object",
            "properties": {
                "termId": {"type": "string"},
                "dayOfWeek": {"type": "integer"},
                "startSlot": {"type": "integer"},
                "span": {"type": "integer"},
                "startWeek": {"type": "integer"},
                "endWeek": {"type": "integer"},
                "parity": {"type": "string", "enum": ["ALL", "ODD", "EVEN"]},
                "name": {"type": "string"},
                "location": {"type": "string"},
                "instructor": {"type": "string"},
                "note": {"type": "string"},
                "color": {"type": "string"}
            },
            "required": ["termId", "dayOfWeek", "startSlot", "span", "startWeek", "endWeek", "name"]
        },
        "ConflictCheckRequest": {
            "type": "object",
            "properties": {
                "termId": {"type": "string"},
                "dayOfWeek": {"type": "integer"},
                "startSlot": {"type": "integer"},
                "span": {"type": "integer"},
                "weeks": {"type": "array", "items": {"type": "integer"}},
                "startWeek": {"type": "integer"},
                "endWeek": {"type": "integer"},
                "parity": {"type": "string"},
                "excludeId": {"type": "integer"}
            },
            "required": ["termId", "dayOfWeek", "startSlot", "span"]
        },
        "RescheduleRequest": {
            "type": "object",
            "properties": {
                "movedWeeks": {"type": "array", "items": {"type": "integer"}},
                "targetWeeks": {"type": "array", "items": {"type": "integer"}},
                "newDay": {"type": "integer"},
                "newStartSlot": {"type": "integer"},
                "newLocation": {"type": "string"},
                "note": {"type": "string"},
                "confirmConflicts": {"type": "boolean"}
            },
            "required": ["movedWeeks", "targetWeeks", "newDay", "newStartSlot"]
        },
        "Placement": {
            "type": "object",
            "properties": {
                "day_of_week": {"type": "integer"},
                "start_slot": {"type": "integer"},
                "span": {"type": "integer"},
                "location": {"type": "string"}
            }
        },
        "UndoRequest": {
            "type": "object",
            "properties": {
                "canonical": {"$ref": "#/definitions/Placement"}
            }
        },
        "DurationRequest": {
            "type": "object",
            "properties": {
                "span": {"type": "integer"}
            },
            "required": ["span"]
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

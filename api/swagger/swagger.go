package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Weft Scheduler API",
        "description": "Genetic-algorithm timetable scheduler service.",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {
                        "description": "Ready"
                    }
                }
            }
        },
        "/schedule/generate": {
            "post": {
                "summary": "Generate conflict-free schedule proposal (legacy endpoint)",
                "tags": ["Academics"],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/schedules/generator": {
            "post": {
                "summary": "Generate schedule proposal (canonical alias)",
                "tags": ["Academics"],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/schedules/generator/async": {
            "post": {
                "summary": "Queue a schedule proposal generation job",
                "tags": ["Scheduler"],
                "responses": {
                    "202": {
                        "description": "Accepted"
                    }
                }
            }
        },
        "/schedules/generator/async/{jobId}": {
            "get": {
                "summary": "Poll an asynchronously queued generation job",
                "tags": ["Scheduler"],
                "parameters": [
                    {
                        "name": "jobId",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/schedule/save": {
            "post": {
                "summary": "Save schedule proposal to semester schedules",
                "tags": ["Scheduler"],
                "responses": {
                    "201": {
                        "description": "Created"
                    }
                }
            }
        },
        "/semester-schedule": {
            "get": {
                "summary": "List semester schedules for class-term",
                "tags": ["Scheduler"],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/semester-schedule/{id}/slots": {
            "get": {
                "summary": "Get slots for a semester schedule",
                "tags": ["Scheduler"],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/semester-schedule/{id}/export": {
            "get": {
                "summary": "Export a semester schedule's slots as CSV",
                "tags": ["Scheduler"],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/semester-schedule/{id}": {
            "delete": {
                "summary": "Delete draft semester schedule",
                "tags": ["Scheduler"],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    }
                }
            }
        },
        "/teachers/{id}/assignments": {
            "get": {
                "summary": "List assignments for a teacher",
                "tags": ["Teacher Assignments"],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            },
            "post": {
                "summary": "Assign a teacher to a class/subject/term",
                "tags": ["Teacher Assignments"],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created"
                    }
                }
            }
        },
        "/teachers/{id}/assignments/{aid}": {
            "delete": {
                "summary": "Remove a teacher assignment",
                "tags": ["Teacher Assignments"],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "aid",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    }
                }
            }
        },
        "/schedules/preferences": {
            "get": {
                "summary": "Get teacher schedule preferences (alias)",
                "tags": ["Academics"],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            },
            "post": {
                "summary": "Upsert teacher schedule preferences (alias)",
                "tags": ["Academics"],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
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

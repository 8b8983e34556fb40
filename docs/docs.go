// Package docs registers the swagger document served under /swagger/.
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
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/register": {
            "post": {
                "tags": ["auth"],
                "summary": "Регистрация нового пользователя",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "input", "required": true, "schema": {"$ref": "#/definitions/services.RegisterInput"}}
                ],
                "responses": {
                    "201": {"description": "Пользователь создан"},
                    "400": {"description": "Ошибка валидации"},
                    "409": {"description": "Имя пользователя занято"}
                }
            }
        },
        "/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Вход по имени пользователя и паролю",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "input", "required": true, "schema": {"$ref": "#/definitions/services.LoginInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.LoginResult"}},
                    "401": {"description": "Неверные учётные данные"}
                }
            }
        },
        "/events/{eventID}/standings": {
            "get": {
                "tags": ["events"],
                "summary": "Турнирная таблица лиги",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "in": "path", "name": "eventID", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.StandingRow"}}},
                    "400": {"description": "Событие не является лигой"},
                    "404": {"description": "Событие не найдено"}
                }
            }
        },
        "/events/{eventID}/users/{userID}/knockout-progress": {
            "get": {
                "tags": ["events"],
                "summary": "Путь участника по сетке плей-офф",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "in": "path", "name": "eventID", "required": true},
                    {"type": "integer", "in": "path", "name": "userID", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Событие не плей-офф или пользователь не зарегистрирован"},
                    "404": {"description": "Событие или пользователь не найдены"}
                }
            }
        },
        "/results": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["results"],
                "summary": "Записать результат матча",
                "description": "Для матчей лиги в той же транзакции обновляется турнирная таблица.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "input", "required": true, "schema": {"$ref": "#/definitions/services.CreateResultInput"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Некорректный счёт или победитель"},
                    "404": {"description": "Матч не найден"},
                    "409": {"description": "Результат уже записан"}
                }
            }
        },
        "/matches/{matchID}/upload/{userID}": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["matches"],
                "summary": "Загрузить скриншот или схему тактики участника матча",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "in": "path", "name": "matchID", "required": true},
                    {"type": "integer", "in": "path", "name": "userID", "required": true},
                    {"type": "string", "in": "query", "name": "file_type", "required": true, "enum": ["screenshot", "tactics"]},
                    {"type": "file", "in": "formData", "name": "file", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Загрузка за другого пользователя"},
                    "404": {"description": "Матч не найден или пользователь не участник"},
                    "413": {"description": "Файл слишком большой"}
                }
            }
        },
        "/health": {
            "get": {
                "tags": ["health"],
                "summary": "Проверка доступности базы данных",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "База данных недоступна"}
                }
            }
        }
    },
    "definitions": {
        "services.RegisterInput": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"},
                "email": {"type": "string"}
            }
        },
        "services.LoginInput": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "services.LoginResult": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "token_type": {"type": "string"},
                "role": {"type": "string"}
            }
        },
        "services.CreateResultInput": {
            "type": "object",
            "properties": {
                "match_id": {"type": "integer"},
                "user1_score": {"type": "integer"},
                "user2_score": {"type": "integer"},
                "winner_user_id": {"type": "integer"}
            }
        },
        "models.StandingRow": {
            "type": "object",
            "properties": {
                "position": {"type": "integer"},
                "user_id": {"type": "integer"},
                "username": {"type": "string"},
                "points": {"type": "integer"},
                "wins": {"type": "integer"},
                "draws": {"type": "integer"},
                "losses": {"type": "integer"},
                "goals_scored": {"type": "integer"},
                "goals_against": {"type": "integer"},
                "goal_difference": {"type": "integer"},
                "games_played": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Cup Manager API",
	Description:      "Events, matches, results, league standings and knockout progress.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

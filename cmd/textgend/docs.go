package main

// General API documentation for swaggo. Run `swag init -g cmd/textgend/docs.go -o docs` to regenerate.
//
// @title           textgend API
// @version         1.0
// @description     HTTP API for distilgpt2-style text generation.
//
// @contact.name   textgend maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http

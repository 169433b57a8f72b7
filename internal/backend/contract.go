// contract.go — проверка ответов backend по встроенному OpenAPI-контракту.
// Используется kin-openapi: загрузка документа, поиск маршрута, openapi3filter.ValidateResponse.
package backend

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

//go:embed openapi.yaml
var contractDocument []byte

// Contract — OpenAPI-контракт backend.
type Contract struct {
	router   routers.Router
	basePath string
}

// LoadContract загружает и валидирует встроенный контракт.
// basePath — путь базового URL backend (например, "/api/"), отрезается перед поиском маршрута.
func LoadContract(basePath string) (*Contract, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(contractDocument)
	if err != nil {
		return nil, fmt.Errorf("загрузка OpenAPI-контракта: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("валидация OpenAPI-контракта: %w", err)
	}

	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("создание маршрутизатора контракта: %w", err)
	}

	return &Contract{
		router:   router,
		basePath: strings.TrimRight(basePath, "/"),
	}, nil
}

// ValidateResponse проверяет успешный ответ backend на соответствие контракту.
// Ответы с кодами, не описанными в контракте, не проверяются.
func (c *Contract) ValidateResponse(ctx context.Context, req *http.Request, status int, header http.Header, body []byte) error {
	routeReq := req.Clone(ctx)
	routeReq.URL.Path = "/" + strings.TrimLeft(strings.TrimPrefix(req.URL.Path, c.basePath), "/")
	routeReq.URL.RawPath = ""

	route, pathParams, err := c.router.FindRoute(routeReq)
	if err != nil {
		return fmt.Errorf("%w: маршрут %s %s отсутствует в контракте: %v",
			ErrMalformedResponse, req.Method, routeReq.URL.Path, err)
	}

	respHeader := header.Clone()
	if respHeader == nil {
		respHeader = http.Header{}
	}
	if respHeader.Get("Content-Type") == "" && len(body) > 0 {
		respHeader.Set("Content-Type", "application/json")
	}

	input := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{
			Request:    routeReq,
			PathParams: pathParams,
			Route:      route,
		},
		Status: status,
		Header: respHeader,
		Body:   io.NopCloser(bytes.NewReader(body)),
		Options: &openapi3filter.Options{
			IncludeResponseStatus: false,
		},
	}

	if err := openapi3filter.ValidateResponse(ctx, input); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

package swagger

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

// Register attaches the API docs to r.
//
//	GET /openapi.json -> the OpenAPI document
//	GET /swagger/*    -> Swagger UI
func Register(r chi.Router) {
	if r == nil {
		panic("router is nil")
	}

	r.Get("/openapi.json", func(w http.ResponseWriter, _ *http.Request) {
		doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(doc))
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/openapi.json"),
		httpSwagger.InstanceName(SwaggerInfo.InstanceName()),
	))
}

package server

import (
	"errors"
	"log/slog"
	"strings"
	"unicode"

	"atelier/internal/middleware"
	"atelier/internal/models"
	"atelier/internal/pagination"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// listResponse is the envelope of every list endpoint.
type listResponse struct {
	Items   any               `json:"items"`
	Paging  pagination.Paging `json:"paging"`
	Sort    sortInfo          `json:"sort"`
	Filters map[string]any    `json:"filters"`
}

type sortInfo struct {
	Field string `json:"field"`
	Order string `json:"order"`
}

// respond maps err to its status and writes the error body. Internal errors
// are logged here and reach the client as an opaque message.
func (s *Server) respond(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request error",
			slog.String("path", c.Path()), slog.String("error", err.Error()))
	}
	return models.RespondWithError(c, status, err)
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parseBody decodes a JSON body into dest, writing a 400 on failure.
func (s *Server) parseBody(c *fiber.Ctx, dest any) error {
	if err := c.BodyParser(dest); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "userId" -> "user ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		return strings.ToLower(strings.Join(splitCamel(param[:len(param)-2]), " ")) + " ID"
	}
	return param
}

func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	return append(words, s[start:])
}

// pageRequest reads page and pageSize (page_size is accepted too).
func pageRequest(c *fiber.Ctx) pagination.Request {
	size := c.QueryInt("pageSize", 0)
	if size == 0 {
		size = c.QueryInt("page_size", 0)
	}
	return pagination.Request{Page: c.QueryInt("page", 1), PageSize: size}
}

// sortQuery reads sort and order, falling back to def when sort is not one
// of allowed.
func sortQuery(c *fiber.Ctx, allowed []string, def string, defDesc bool) (string, bool) {
	field := strings.ToLower(strings.TrimSpace(c.Query("sort")))
	valid := false
	for _, a := range allowed {
		if a == field {
			valid = true
			break
		}
	}
	if !valid {
		field = def
	}

	desc := defDesc
	switch strings.ToLower(c.Query("order")) {
	case "asc":
		desc = false
	case "desc":
		desc = true
	}
	return field, desc
}

func newSortInfo(field string, desc bool) sortInfo {
	if desc {
		return sortInfo{Field: field, Order: "desc"}
	}
	return sortInfo{Field: field, Order: "asc"}
}

// queryBool parses an optional boolean query parameter.
func queryBool(c *fiber.Ctx, key string) *bool {
	switch strings.ToLower(strings.TrimSpace(c.Query(key))) {
	case "true", "1", "yes":
		v := true
		return &v
	case "false", "0", "no":
		v := false
		return &v
	}
	return nil
}

// activeFilters drops empty values so the echoed filters only show what applied.
func activeFilters(kv map[string]any) map[string]any {
	out := make(map[string]any, len(kv))
	for k, v := range kv {
		switch t := v.(type) {
		case string:
			if t == "" {
				continue
			}
		case *bool:
			if t == nil {
				continue
			}
			out[k] = *t
			continue
		case *uint:
			if t == nil {
				continue
			}
			out[k] = *t
			continue
		}
		out[k] = v
	}
	return out
}

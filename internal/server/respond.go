package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/tankyu/diary/internal/competency"
	"github.com/tankyu/diary/internal/logger"
	"github.com/tankyu/diary/internal/report"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// errorDetail is the body of every error response.
type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

// apiError is an error that already knows its HTTP shape.
type apiError struct {
	status int
	detail errorDetail
	err    error
}

func (e *apiError) Error() string { return e.detail.Message }
func (e *apiError) Unwrap() error { return e.err }

func badRequest(code, msg string) *apiError {
	return &apiError{
		status: http.StatusBadRequest,
		detail: errorDetail{Code: code, Message: msg},
		err:    report.ErrInvalidInput,
	}
}

// respondJSON writes payload as JSON with the given status.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":"INTERNAL_SERVER_ERROR","message":"レスポンスの生成に失敗しました。"}}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// respondError maps err to a status code and error body. Unexpected errors
// are logged and answered with a generic message.
func respondError(w http.ResponseWriter, log *logger.Logger, err error) {
	var ae *apiError
	if errors.As(err, &ae) {
		respondJSON(w, ae.status, errorResponse{Error: ae.detail})
		return
	}

	var (
		status int
		detail errorDetail
	)
	switch {
	case errors.Is(err, report.ErrNotFound):
		status = http.StatusNotFound
		detail = errorDetail{Code: "NOT_FOUND", Message: err.Error()}
	case errors.Is(err, report.ErrInvalidInput):
		status = http.StatusBadRequest
		detail = errorDetail{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.Is(err, competency.ErrEmptyCatalog):
		log.Error("competency catalog is empty", "error", err)
		status = http.StatusInternalServerError
		detail = errorDetail{Code: "CATALOG_NOT_SEEDED", Message: "能力マスタが登録されていません。"}
	default:
		log.Error("unhandled error", "error", err)
		status = http.StatusInternalServerError
		detail = errorDetail{Code: "INTERNAL_SERVER_ERROR", Message: "サーバー内部でエラーが発生しました。"}
	}
	respondJSON(w, status, errorResponse{Error: detail})
}

// decodeJSON decodes the body into dst, rejecting unknown fields, and
// validates the result.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return badRequest("INVALID_JSON", "リクエストボディがありません。")
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return badRequest("INVALID_JSON", fmt.Sprintf("リクエストボディを解釈できません: %v", err))
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return validationError(verrs)
		}
		return err
	}
	return nil
}

func validationError(errs validator.ValidationErrors) *apiError {
	fields := make([]string, 0, len(errs))
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		fields = append(fields, fe.Field())
		msgs = append(msgs, fe.Translate(trans))
	}
	ae := badRequest("VALIDATION_ERROR", strings.Join(msgs, " "))
	ae.detail.Field = strings.Join(fields, ",")
	return ae
}

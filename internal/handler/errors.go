package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hitoshi/grocerstock/internal/middleware"
	"github.com/hitoshi/grocerstock/internal/model"
)

// maxRequestBodyBytes はJSONリクエストボディの上限。
const maxRequestBodyBytes = 1 << 20

// requestValidator はリクエストボディのタグ検証に使う。スレッドセーフ。
var requestValidator = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// エラーメッセージにJSONのフィールド名を使う
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON はリクエストボディをdstにデコードし、validateタグを検証する。
// 失敗した場合はINVALID_REQUESTのAPIErrorを返す。
func decodeJSON(r *http.Request, dst any) *model.APIError {
	body := io.LimitReader(r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return model.NewInvalidRequestError("リクエストボディが空です。")
		}
		return model.NewInvalidRequestError("リクエストボディの解析に失敗しました。正しいJSON形式でリクエストしてください。")
	}

	if err := requestValidator.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return model.NewInvalidRequestError(describeFieldError(verrs[0]))
		}
		return model.NewInvalidRequestError(err.Error())
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%sは必須です。", fe.Field())
	case "gt":
		return fmt.Sprintf("%sは%sより大きい値を指定してください。", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%sは%s以上の値を指定してください。", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%sは%s文字以内で指定してください。", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%sは次のいずれかを指定してください: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%sの値が正しくありません。", fe.Field())
	}
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// requireUserID は認証済みユーザーIDを取り出す。無い場合は401を書き込みfalseを返す。
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return "", false
	}
	return userID, true
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
// APIError以外のエラーは詳細をログにのみ記録し、一般的な内部エラーとして返す。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), withResponseDetails(apiErr))
		return
	}

	slog.Error("internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	middleware.WriteInternalServerError(w)
}

// withResponseDetails はDetailsに含まれるドメインモデルをレスポンス型に変換したコピーを返す。
func withResponseDetails(apiErr *model.APIError) *model.APIError {
	p, ok := apiErr.Details.(*model.Product)
	if !ok {
		return apiErr
	}
	converted := *apiErr
	if p == nil {
		converted.Details = nil
	} else {
		converted.Details = map[string]any{"product": toProductResponse(p)}
	}
	return &converted
}

// mapAPIErrorToHTTPStatus はAPIErrorのカテゴリからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Category {
	case model.CategoryValidation:
		return http.StatusBadRequest
	case model.CategoryAuth:
		return http.StatusUnauthorized
	case model.CategoryConflict:
		return http.StatusConflict
	case model.CategoryNotFound:
		return http.StatusNotFound
	default:
		// upstream, system
		return http.StatusInternalServerError
	}
}

package dto

import (
	"faktura/internal/core/apperror"
	"faktura/internal/domain/generation"
)

// GenerateRequest asks for documents to be generated from the given
// recurring templates.
type GenerateRequest struct {
	TemplateIDs []string `json:"templateIds" binding:"required,min=1"`
	Note        string   `json:"note"`
}

// GenerationResultResponse is the per-template outcome of a batch run.
type GenerationResultResponse struct {
	TemplateID string         `json:"templateId"`
	DocumentID string         `json:"documentId,omitempty"`
	Number     string         `json:"number,omitempty"`
	Succeeded  bool           `json:"succeeded"`
	Error      *ErrorResponse `json:"error,omitempty"`
}

// GenerateResponse is the full batch outcome. The order of results
// follows the order of the requested templates.
type GenerateResponse struct {
	Results   []GenerationResultResponse `json:"results"`
	Requested int                        `json:"requested"`
	Generated int                        `json:"generated"`
	Failed    int                        `json:"failed"`
}

// FromResults maps generation results to the API shape.
func FromResults(results []generation.Result) GenerateResponse {
	summary := generation.Summarize(results)

	out := make([]GenerationResultResponse, 0, len(results))
	for _, res := range results {
		item := GenerationResultResponse{
			TemplateID: res.TemplateID.String(),
			Succeeded:  res.Succeeded(),
		}
		if res.Succeeded() {
			item.DocumentID = res.DocumentID.String()
			item.Number = res.Number
		} else if appErr, ok := apperror.AsAppError(res.Err); ok {
			item.Error = &ErrorResponse{
				Code:    appErr.Code,
				Message: appErr.Message,
				Details: appErr.Details,
			}
		} else {
			item.Error = &ErrorResponse{
				Code:    apperror.CodeInternal,
				Message: res.Err.Error(),
			}
		}
		out = append(out, item)
	}

	return GenerateResponse{
		Results:   out,
		Requested: len(results),
		Generated: summary.Succeeded,
		Failed:    summary.Failed,
	}
}

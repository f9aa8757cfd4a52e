package dues

import "errors"

// Result is the outcome of a form submission.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    *Due   `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    Kind   `json:"code,omitempty"`
}

func success(op string, d Due) Result {
	msg := "Due created successfully"
	if op == "update" {
		msg = "Due updated successfully"
	}
	return Result{Success: true, Message: msg, Data: &d}
}

func failure(op string, err error) Result {
	kind := KindOf(err)
	switch kind {
	case KindPersistence:
		msg := "Failed to create due"
		if op == "update" {
			msg = "Failed to update due"
		}
		detail := err.Error()
		var perr *PersistenceError
		if errors.As(err, &perr) {
			detail = perr.Err.Error()
		}
		return Result{Message: msg, Error: detail, Code: kind}
	case KindDueNotFound:
		return Result{Message: "Due not found", Code: kind}
	default:
		return Result{Message: err.Error(), Code: kind}
	}
}

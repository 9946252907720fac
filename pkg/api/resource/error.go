package resource

type ErrorResource struct {
	Message string `json:"message"`
}

func NewError(err error) *ErrorResource {
	return &ErrorResource{Message: err.Error()}
}

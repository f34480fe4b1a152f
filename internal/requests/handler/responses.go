package handler

type dataResponse struct {
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

type deleteResponse struct {
	Deleted bool   `json:"deleted"`
	Message string `json:"message,omitempty"`
}

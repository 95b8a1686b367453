package book

type CreateBookReq struct {
	Title  string `json:"title" validate:"required"`
	Author string `json:"author" validate:"required"`
	ISBN   string `json:"isbn" validate:"required"`
	Copies int    `json:"copies" validate:"required,gte=1"`
}

type UpdateBookReq struct {
	Title  string `json:"title" validate:"required"`
	Author string `json:"author" validate:"required"`
	ISBN   string `json:"isbn" validate:"required"`
	Copies int    `json:"copies" validate:"required,gte=1"`
}

type AdjustAvailabilityReq struct {
	Operation string `json:"operation" validate:"required,oneof=increment decrement"`
}

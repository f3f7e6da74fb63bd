package request

type FindProducts struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

type InsertProduct struct {
	Name  string `validate:"required"       json:"name"`
	Slug  string `validate:"required"       json:"slug"`
	Image string `                          json:"image"`
	Price string `validate:"required,price" json:"price"`
	Stock int32  `validate:"gte=0"          json:"stock"`
}

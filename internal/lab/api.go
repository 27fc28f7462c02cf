package lab

// Item is one gauge record in the calibration lab's status feed, keyed by the
// gauge's business identifier.
type Item struct {
	Ident     string `json:"ident"`
	Completed bool   `json:"completed"`
}

// Response is the envelope of the lab status API.
type Response struct {
	Code int `json:"code"`
	Data struct {
		Page     int    `json:"page"`
		PageSize int    `json:"pageSize"`
		Total    int    `json:"total"`
		Items    []Item `json:"items"`
	} `json:"data"`
}

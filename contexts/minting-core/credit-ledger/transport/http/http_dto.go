package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RegisterAccountRequest struct {
	Identity string            `json:"identity"`
	Metadata map[string]string `json:"metadata"`
}

type RegisterAccountResponse struct {
	Status string `json:"status"`
	Data   struct {
		AccountID string `json:"account_id"`
		Identity  string `json:"identity"`
	} `json:"data"`
}

type BalanceResponse struct {
	Status string `json:"status"`
	Data   struct {
		Identity string `json:"identity"`
		Balance  uint64 `json:"balance"`
	} `json:"data"`
}

type DepositRequest struct {
	Amount uint64 `json:"amount"`
}

type DepositResponse struct {
	Status string `json:"status"`
	Data   struct {
		Identity string `json:"identity"`
		Balance  uint64 `json:"balance"`
	} `json:"data"`
}

type CostResponse struct {
	Status string `json:"status"`
	Data   struct {
		AttachmentCount int    `json:"attachment_count"`
		CreditCost      uint64 `json:"credit_cost"`
	} `json:"data"`
}

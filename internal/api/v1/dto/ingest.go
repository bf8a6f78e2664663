package dto

// IngestTextDTO is used for incoming free-form text ingestion requests
type IngestTextDTO struct {
	Text string `json:"text" validate:"required"`
}

// IngestResultDTO reports what an ingestion produced
type IngestResultDTO struct {
	Transactions []TransactionResponseDTO `json:"transactions"`
	Debts        []DebtResponseDTO        `json:"debts"`
	Skipped      int                      `json:"skipped"`
}

package amqp

import (
	"encoding/json"
	"time"
)

// SpendRecordedMessage announces a persisted spend. It carries identifiers only;
// consumers load the spend and wallet from the database.
type SpendRecordedMessage struct {
	SpendID   string    `json:"spendId"`
	WalletID  string    `json:"walletId"`
	PeriodID  string    `json:"periodId"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSpendRecordedMessage creates a message stamped with the current time.
func NewSpendRecordedMessage(spendID, walletID, periodID string) *SpendRecordedMessage {
	return &SpendRecordedMessage{
		SpendID:   spendID,
		WalletID:  walletID,
		PeriodID:  periodID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SpendRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SpendRecordedMessageFromJSON decodes a message and rejects one without a spend id.
func SpendRecordedMessageFromJSON(data []byte) (*SpendRecordedMessage, error) {
	var msg SpendRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.SpendID == "" {
		return nil, errMissingSpendID
	}
	return &msg, nil
}

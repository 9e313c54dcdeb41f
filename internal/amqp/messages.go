package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"cardstats/internal/core"
)

// MonthRefreshedMessage announces that the mirror holds new figures for a month
type MonthRefreshedMessage struct {
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Records   int       `json:"records"`
	Timestamp time.Time `json:"timestamp"`
}

func NewMonthRefreshedMessage(year, month, records int) *MonthRefreshedMessage {
	return &MonthRefreshedMessage{
		Year:      year,
		Month:     month,
		Records:   records,
		Timestamp: time.Now(),
	}
}

// Entry returns the month the message refers to
func (m *MonthRefreshedMessage) Entry() core.MonthIndexEntry {
	return core.MonthIndexEntry{Year: m.Year, Month: m.Month}
}

// ToJSON converts the message to JSON bytes
func (m *MonthRefreshedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MonthRefreshedMessageFromJSON decodes and validates a message
func MonthRefreshedMessageFromJSON(data []byte) (*MonthRefreshedMessage, error) {
	var msg MonthRefreshedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Entry().Validate(); err != nil {
		return nil, fmt.Errorf("month refreshed message: %w", err)
	}
	return &msg, nil
}

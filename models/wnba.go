package models

import "encoding/json"

type WNBATeam struct {
	ID   int             `json:"id"`
	Data json.RawMessage `json:"-"`
}

// WNBAPlayer is an entry of a team roster feed (t.pl).
type WNBAPlayer struct {
	PID       int             `json:"pid"`
	TeamID    int             `json:"-"`
	FirstName string          `json:"fn"`
	LastName  string          `json:"ln"`
	Jersey    Scalar          `json:"num"`
	Position  Scalar          `json:"pos"`
	Height    Scalar          `json:"ht"`
	Weight    Scalar          `json:"wt"`
	Data      json.RawMessage `json:"-"`
}

// Following is one row of an account's followers export.
type Following struct {
	ID          string          `json:"id"`
	AccountName string          `json:"account_name"`
	JoinDate    string          `json:"join_date"`
	Data        json.RawMessage `json:"-"`
}

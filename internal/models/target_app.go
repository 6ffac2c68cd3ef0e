package models

import "time"

// TargetApp is a client mobile app that messages can be targeted at.
// Apps are deactivated rather than deleted.
type TargetApp struct {
	ID        int       `db:"id" json:"id"`
	AppID     string    `db:"app_id" json:"appId"`
	AppName   string    `db:"app_name" json:"appName"`
	IsActive  bool      `db:"is_active" json:"isActive"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// DefaultTargetApps are the city apps seeded by `pulsectl seed-apps`.
var DefaultTargetApps = []TargetApp{
	{AppID: "brighton", AppName: "The Brighton App"},
	{AppID: "edinburgh", AppName: "The Edinburgh App"},
	{AppID: "manchester", AppName: "The Manchester App"},
	{AppID: "cardiff", AppName: "The Cardiff App"},
	{AppID: "kilkenny", AppName: "The Kilkenny App"},
	{AppID: "york", AppName: "The York App"},
}

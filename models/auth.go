// ABOUTME: Login-activity records returned by the auth backend
// ABOUTME: JSON shapes match the backend camelCase wire format
package models

// DeviceInfo describes the client that opened a session.
type DeviceInfo struct {
	Browser string `json:"browser"`
	OS      string `json:"os"`
	Device  string `json:"device"`
}

// LoginActivity is one login session reported by the auth backend.
type LoginActivity struct {
	ID         string     `json:"id"`
	DeviceInfo DeviceInfo `json:"deviceInfo"`
	IPAddress  string     `json:"ipAddress"`
	LoginAt    string     `json:"loginAt"`
	IsActive   bool       `json:"isActive"`
	SessionID  string     `json:"sessionId"`
}

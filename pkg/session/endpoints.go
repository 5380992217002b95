package session

// Appliance endpoints used by the session itself.
const (
	LoginPath           = "/v1/user/setting/login"
	TimeSyncPath        = "/v1/user/setting/timesync"
	FactoryPasswordPath = "/v1/user/setting/read/password"
)

// Wire constants of the login handshake.
const (
	// TimeSyncOrigin is the "by" field of the time-sync request.
	TimeSyncOrigin = "phone"

	// TimeSyncLayout formats the "date_time" field.
	TimeSyncLayout = "2006-01-02 15:04:05"

	// StatusSuccess is the "status" value of a successful call.
	StatusSuccess = "success"

	// AuthFailedValue is the "auth" value of the expired-token sentinel.
	AuthFailedValue = "auth_key failed"
)

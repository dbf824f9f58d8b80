package models

// CarData is the telemetry payload published for a simulated truck on every tick.
type CarData struct {
	Location   Location `json:"location"`
	Speed      float64  `json:"speed"`      // km/h
	SpeedLimit float64  `json:"speedLimit"` // km/h, estimated
	RouteID    string   `json:"routeId"`
	Break      bool     `json:"break"`
}

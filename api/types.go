package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type BoardType string

const (
	BoardTypeDeparture BoardType = "DEPARTURE"
	BoardTypeArrival   BoardType = "ARRIVAL"
)

type Board struct {
	GeneratedAt        string    `json:"generatedAt"`
	LocationName       string    `json:"locationName"`
	Crs                string    `json:"crs"`
	FilterLocationName string    `json:"filterLocationName"`
	FilterCrs          string    `json:"filtercrs"`
	FilterType         string    `json:"filterType"`
	PlatformAvailable  Bool      `json:"platformAvailable"`
	Services           []Service `json:"services"`
}

type Service struct {
	RidKey       string    `json:"ridKey"`
	ServiceID    string    `json:"serviceID"`
	STA          string    `json:"sta"`
	ETA          string    `json:"eta"`
	STD          string    `json:"std"`
	ETD          string    `json:"etd"`
	Platform     string    `json:"platform"`
	Operator     string    `json:"operator"`
	OperatorCode string    `json:"operatorCode"`
	ServiceType  string    `json:"serviceType"`
	IsCancelled  Bool      `json:"isCancelled"`
	CancelReason string    `json:"cancelReason"`
	DelayReason  string    `json:"delayReason"`
	Origin       Locations `json:"origin"`
	Destination  Locations `json:"destination"`
}

type serviceDetailsResponse struct {
	Result ServiceDetails `json:"GetServiceDetailsResult"`
}

type ServiceDetails struct {
	GeneratedAt  string    `json:"generatedAt"`
	RidKey       string    `json:"ridKey"`
	TrainID      string    `json:"trainid"`
	ServiceType  string    `json:"serviceType"`
	Operator     string    `json:"operator"`
	OperatorCode string    `json:"operatorCode"`
	IsCancelled  Bool      `json:"isCancelled"`
	CancelReason string    `json:"cancelReason"`
	DelayReason  string    `json:"delayReason"`
	Locations    Locations `json:"locations"`
}

type Location struct {
	LocationName string `json:"locationName"`
	Crs          string `json:"crs"`
	Tiploc       string `json:"tiploc"`
	Via          string `json:"via"`
	Platform     string `json:"platform"`
	STA          string `json:"sta"`
	ETA          string `json:"eta"`
	ATA          string `json:"ata"`
	STD          string `json:"std"`
	ETD          string `json:"etd"`
	ATD          string `json:"atd"`
	IsCancelled  Bool   `json:"isCancelled"`
}

// Locations decodes the SOAP-derived shapes the upstream emits: a bare array,
// a single object, or either one wrapped in a "location" member.
type Locations []Location

func (l *Locations) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}

	switch data[0] {
	case '[':
		var items []Location
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*l = items
	case '{':
		var wrapped struct {
			Location json.RawMessage `json:"location"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return err
		}
		if wrapped.Location != nil {
			return l.UnmarshalJSON(wrapped.Location)
		}

		var single Location
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*l = Locations{single}
	default:
		return fmt.Errorf("unexpected locations payload: %s", data)
	}

	return nil
}

// Names joins the location names, as shown on a departure board.
func (l Locations) Names() string {
	names := make([]string, 0, len(l))
	for _, location := range l {
		names = append(names, location.LocationName)
	}

	return strings.Join(names, " & ")
}

// Bool accepts JSON booleans as well as "true"/"false" strings and 0/1.
type Bool bool

func (b *Bool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		*b = false
		return nil
	}

	v, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("invalid boolean %s: %w", data, err)
	}
	*b = Bool(v)

	return nil
}

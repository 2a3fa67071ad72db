// internal/transactions/transactions.go
package transactions

import (
	"slices"
	"strings"
	"time"

	"github.com/soulparking/dashboard/internal/daterange"
	"github.com/soulparking/dashboard/internal/export"
)

// TimeLayout is the layout of entry and exit timestamps.
const TimeLayout = "2006-01-02 15:04"

const (
	VehicleMotorcycle = "Motorcycle"
	VehicleCar        = "Car"
	VehicleBicycle    = "Bicycle"

	StatusPaid   = "Paid"
	StatusUnpaid = "Unpaid"
)

// Record is one parking transaction. ExitTime is empty while the vehicle is still parked.
type Record struct {
	ID          string `json:"id"`
	PlateNumber string `json:"plateNumber"`
	VehicleType string `json:"vehicleType"`
	EntryTime   string `json:"entryTime"`
	ExitTime    string `json:"exitTime"`
	Status      string `json:"status"`
	Amount      int64  `json:"amount"`
}

var seed = []Record{
	{ID: "1", PlateNumber: "B 1234 ABC", VehicleType: VehicleCar, EntryTime: "2023-10-26 08:00", ExitTime: "2023-10-26 10:00", Status: StatusPaid, Amount: 15000},
	{ID: "2", PlateNumber: "B 5678 DEF", VehicleType: VehicleMotorcycle, EntryTime: "2023-10-26 08:15", ExitTime: "2023-10-26 09:15", Status: StatusPaid, Amount: 2000},
	{ID: "3", PlateNumber: "B 9012 GHI", VehicleType: VehicleCar, EntryTime: "2023-10-26 08:30", ExitTime: "", Status: StatusUnpaid, Amount: 0},
	{ID: "4", PlateNumber: "B 3456 JKL", VehicleType: VehicleMotorcycle, EntryTime: "2023-10-26 09:00", ExitTime: "2023-10-26 12:00", Status: StatusPaid, Amount: 5000},
	{ID: "5", PlateNumber: "B 7890 MNO", VehicleType: VehicleBicycle, EntryTime: "2023-10-26 09:10", ExitTime: "2023-10-26 09:40", Status: StatusPaid, Amount: 1000},
	{ID: "6", PlateNumber: "D 1234 PQR", VehicleType: VehicleCar, EntryTime: "2023-10-26 09:30", ExitTime: "", Status: StatusUnpaid, Amount: 0},
	{ID: "7", PlateNumber: "B 5678 STU", VehicleType: VehicleMotorcycle, EntryTime: "2023-10-26 10:00", ExitTime: "2023-10-26 11:30", Status: StatusPaid, Amount: 3000},
	{ID: "8", PlateNumber: "AB 9012 VWX", VehicleType: VehicleCar, EntryTime: "2023-10-26 10:15", ExitTime: "2023-10-26 14:15", Status: StatusPaid, Amount: 35000},
	{ID: "9", PlateNumber: "B 3456 YZ", VehicleType: VehicleMotorcycle, EntryTime: "2023-10-26 10:30", ExitTime: "", Status: StatusUnpaid, Amount: 0},
	{ID: "10", PlateNumber: "B 1111 AA", VehicleType: VehicleCar, EntryTime: "2023-10-26 11:00", ExitTime: "2023-10-26 13:00", Status: StatusPaid, Amount: 15000},
	{ID: "11", PlateNumber: "B 2222 BB", VehicleType: VehicleMotorcycle, EntryTime: "2023-10-26 11:15", ExitTime: "2023-10-26 11:45", Status: StatusPaid, Amount: 2000},
}

// All returns a copy of the fixed transaction list.
func All() []Record {
	return slices.Clone(seed)
}

// Filter keeps records whose entry time lies within r, inclusive. When either
// end of r is missing every record is kept. Entry times that do not parse are
// kept. The input is not modified and order is preserved.
func Filter(records []Record, r daterange.Range) []Record {
	if !r.Complete() {
		return slices.Clone(records)
	}

	loc := r.Location()
	filtered := make([]Record, 0, len(records))
	for _, record := range records {
		entry, err := time.ParseInLocation(TimeLayout, record.EntryTime, loc)
		if err != nil || r.Contains(entry) {
			filtered = append(filtered, record)
		}
	}
	return filtered
}

// Search keeps records whose plate number contains query, ignoring case. An
// empty query keeps every record.
func Search(records []Record, query string) []Record {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return slices.Clone(records)
	}

	matched := make([]Record, 0, len(records))
	for _, record := range records {
		if strings.Contains(strings.ToLower(record.PlateNumber), needle) {
			matched = append(matched, record)
		}
	}
	return matched
}

// Totals summarises a list of records.
type Totals struct {
	Count  int   `json:"count"`
	Paid   int   `json:"paid"`
	Unpaid int   `json:"unpaid"`
	Amount int64 `json:"amount"`
}

// Summarize counts records by status and sums their amounts.
func Summarize(records []Record) Totals {
	var totals Totals
	for _, record := range records {
		totals.Count++
		totals.Amount += record.Amount
		if record.Status == StatusPaid {
			totals.Paid++
		} else {
			totals.Unpaid++
		}
	}
	return totals
}

// Columns is the export layout of a transaction.
var Columns = []export.Column[Record]{
	{Name: "id", Value: func(r Record) any { return r.ID }},
	{Name: "plateNumber", Value: func(r Record) any { return r.PlateNumber }},
	{Name: "vehicleType", Value: func(r Record) any { return r.VehicleType }},
	{Name: "entryTime", Value: func(r Record) any { return r.EntryTime }},
	{Name: "exitTime", Value: func(r Record) any { return r.ExitTime }},
	{Name: "status", Value: func(r Record) any { return r.Status }},
	{Name: "amount", Value: func(r Record) any { return r.Amount }},
}

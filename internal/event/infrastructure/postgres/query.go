package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	event "ruuvari-collector/internal/event/domain"
)

// EventQuery reads stored events back.
type EventQuery struct {
	db    *sql.DB
	table string
}

// NewEventQuery constructs a query over the repository's table.
func NewEventQuery(repo *EventRepository) *EventQuery {
	if repo == nil {
		return &EventQuery{}
	}
	return &EventQuery{db: repo.db, table: repo.table}
}

// Range returns events of one beacon within [start, end), oldest first.
func (q *EventQuery) Range(ctx context.Context, beaconAddress string, start, end time.Time) ([]event.Event, error) {
	if q == nil || q.db == nil {
		return nil, ErrNilDB
	}
	if beaconAddress == "" || start.IsZero() || end.IsZero() || !start.Before(end) {
		return nil, errors.New("event query: invalid arguments")
	}

	query := fmt.Sprintf(`
SELECT beacon_address, air_pressure, humidity, temperature, rssi, ts
FROM %s
WHERE beacon_address = $1
	AND ts >= $2
	AND ts < $3
ORDER BY ts ASC, id ASC`, q.table)

	rows, err := q.db.QueryContext(ctx, query, beaconAddress, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var evt event.Event
		if err := rows.Scan(&evt.BeaconAddress, &evt.AirPressure, &evt.Humidity, &evt.Temperature, &evt.RSSI, &evt.Timestamp); err != nil {
			return nil, err
		}
		evt.Timestamp = evt.Timestamp.UTC()
		events = append(events, evt)
	}
	return events, rows.Err()
}

package rocpd

import (
	"database/sql"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/ammarwa/rocpd-stream/internal/stream"
)

// LoadEvents materializes every known record family into point-events and
// returns them sorted ascending by timestamp. The sort is stable, so ties
// keep their family/row order and repeated loads of an unchanged database
// produce identical lists.
//
// A family whose query fails contributes zero events; the failure is
// logged and the remaining families still load. Loading is all-or-nothing
// per family, never partial-row.
func (d *DB) LoadEvents() []stream.Event {
	families := []struct {
		name string
		load func() ([]stream.Event, error)
	}{
		{"region", d.loadRegionEvents},
		{"kernel_dispatch", d.loadKernelDispatchEvents},
		{"memory_copy", d.loadMemoryCopyEvents},
		{"memory_allocation", d.loadMemoryAllocationEvents},
	}

	var events []stream.Event
	for _, family := range families {
		loaded, err := family.load()
		if err != nil {
			log.WithError(err).WithField("family", family.name).
				Warn("skipping record family")
			continue
		}
		events = append(events, loaded...)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp < events[j].Timestamp
	})

	log.WithField("events", len(events)).Debug("loaded trace events")
	return events
}

func (d *DB) loadRegionEvents() ([]stream.Event, error) {
	rows, err := d.conn.Query(`
		SELECT
			r.start, r."end", r.nid, r.pid, r.tid,
			s1.string AS region_name,
			COALESCE(s2.string, 'unknown') AS category,
			COALESCE(p.command, 'unknown') AS process_name,
			COALESCE(t.name, 'unknown') AS thread_name,
			r.extdata,
			e.correlation_id,
			e.call_stack,
			e.line_info
		FROM rocpd_region r
		JOIN rocpd_string s1 ON r.name_id = s1.id
		LEFT JOIN rocpd_event e ON r.event_id = e.id
		LEFT JOIN rocpd_string s2 ON e.category_id = s2.id
		LEFT JOIN rocpd_info_process p ON r.pid = p.id
		LEFT JOIN rocpd_info_thread t ON r.tid = t.id
		ORDER BY r.start`)
	if err != nil {
		return nil, fmt.Errorf("querying regions: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var events []stream.Event
	for rows.Next() {
		var (
			start, end    int64
			nid, pid, tid sql.NullInt64
			regionName    string
			category      string
			processName   string
			threadName    string
			extdata       sql.NullString
			correlationID sql.NullInt64
			callStack     sql.NullString
			lineInfo      sql.NullString
		)
		if err := rows.Scan(&start, &end, &nid, &pid, &tid,
			&regionName, &category, &processName, &threadName,
			&extdata, &correlationID, &callStack, &lineInfo); err != nil {
			return nil, fmt.Errorf("scanning region row: %w", err)
		}

		common := map[string]any{
			"region_name":    regionName,
			"category":       category,
			"process_name":   processName,
			"thread_name":    threadName,
			"pid":            nullableInt(pid),
			"tid":            nullableInt(tid),
			"nid":            nullableInt(nid),
			"correlation_id": correlationID.Int64,
			"extdata":        stringOr(extdata, "{}"),
			"call_stack":     stringOr(callStack, "{}"),
			"line_info":      stringOr(lineInfo, "{}"),
		}

		startPayload := cloneMap(common)
		startPayload["event_type"] = "region_start"
		startPayload["duration"] = int64(0)

		endPayload := cloneMap(common)
		endPayload["event_type"] = "region_end"
		endPayload["duration"] = end - start

		events = append(events,
			stream.Event{
				Name:      regionName + "_start",
				Timestamp: start,
				Category:  category,
				PID:       optInt(pid),
				TID:       optInt(tid),
				Payload:   startPayload,
			},
			stream.Event{
				Name:      regionName + "_end",
				Timestamp: end,
				Duration:  end - start,
				Category:  category,
				PID:       optInt(pid),
				TID:       optInt(tid),
				Payload:   endPayload,
			})
	}
	return events, rows.Err()
}

func (d *DB) loadKernelDispatchEvents() ([]stream.Event, error) {
	rows, err := d.conn.Query(`
		SELECT
			k.start, k."end", k.nid, k.pid, k.tid, k.agent_id,
			k.dispatch_id, k.queue_id, k.stream_id,
			k.workgroup_size_x, k.workgroup_size_y, k.workgroup_size_z,
			k.grid_size_x, k.grid_size_y, k.grid_size_z,
			ks.kernel_name, ks.display_name
		FROM rocpd_kernel_dispatch k
		JOIN rocpd_info_kernel_symbol ks ON k.kernel_id = ks.id
		ORDER BY k.start`)
	if err != nil {
		return nil, fmt.Errorf("querying kernel dispatches: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var events []stream.Event
	for rows.Next() {
		var (
			start, end             int64
			nid, pid, tid, agentID sql.NullInt64
			dispatchID             sql.NullInt64
			queueID, streamID      sql.NullInt64
			wgX, wgY, wgZ          int64
			gridX, gridY, gridZ    int64
			kernelName             sql.NullString
			displayName            sql.NullString
		)
		if err := rows.Scan(&start, &end, &nid, &pid, &tid, &agentID,
			&dispatchID, &queueID, &streamID,
			&wgX, &wgY, &wgZ, &gridX, &gridY, &gridZ,
			&kernelName, &displayName); err != nil {
			return nil, fmt.Errorf("scanning kernel dispatch row: %w", err)
		}

		name := "unknown_kernel"
		if kernelName.Valid && kernelName.String != "" {
			name = kernelName.String
		} else if displayName.Valid && displayName.String != "" {
			name = displayName.String
		}

		events = append(events,
			stream.Event{
				Name:      "kernel_dispatch_start",
				Timestamp: start,
				Category:  stream.CategoryKernelDispatch,
				PID:       optInt(pid),
				TID:       optInt(tid),
				AgentID:   optInt(agentID),
				QueueID:   optInt(queueID),
				StreamID:  optInt(streamID),
				Payload: map[string]any{
					"kernel_name":    name,
					"dispatch_id":    dispatchID.Int64,
					"queue_id":       queueID.Int64,
					"stream_id":      streamID.Int64,
					"workgroup_size": fmt.Sprintf("%dx%dx%d", wgX, wgY, wgZ),
					"grid_size":      fmt.Sprintf("%dx%dx%d", gridX, gridY, gridZ),
					"event_type":     "kernel_dispatch_start",
					"duration":       int64(0),
				},
			},
			stream.Event{
				Name:      "kernel_dispatch_end",
				Timestamp: end,
				Duration:  end - start,
				Category:  stream.CategoryKernelDispatch,
				PID:       optInt(pid),
				TID:       optInt(tid),
				AgentID:   optInt(agentID),
				QueueID:   optInt(queueID),
				StreamID:  optInt(streamID),
				Payload: map[string]any{
					"kernel_name": name,
					"dispatch_id": dispatchID.Int64,
					"event_type":  "kernel_dispatch_end",
					"duration":    end - start,
				},
			})
	}
	return events, rows.Err()
}

func (d *DB) loadMemoryCopyEvents() ([]stream.Event, error) {
	rows, err := d.conn.Query(`
		SELECT
			m.start, m."end", m.nid, m.pid, m.tid,
			m.size, m.dst_agent_id, m.src_agent_id,
			m.queue_id, m.stream_id,
			s.string AS name
		FROM rocpd_memory_copy m
		JOIN rocpd_string s ON m.name_id = s.id
		ORDER BY m.start`)
	if err != nil {
		return nil, fmt.Errorf("querying memory copies: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var events []stream.Event
	for rows.Next() {
		var (
			start, end         int64
			nid, pid, tid      sql.NullInt64
			size               sql.NullInt64
			dstAgent, srcAgent sql.NullInt64
			queueID, streamID  sql.NullInt64
			name               string
		)
		if err := rows.Scan(&start, &end, &nid, &pid, &tid,
			&size, &dstAgent, &srcAgent, &queueID, &streamID, &name); err != nil {
			return nil, fmt.Errorf("scanning memory copy row: %w", err)
		}

		events = append(events,
			stream.Event{
				Name:      "memory_copy_start",
				Timestamp: start,
				Category:  stream.CategoryMemoryCopy,
				PID:       optInt(pid),
				TID:       optInt(tid),
				QueueID:   optInt(queueID),
				StreamID:  optInt(streamID),
				Payload: map[string]any{
					"copy_name":    name,
					"size":         size.Int64,
					"dst_agent_id": dstAgent.Int64,
					"src_agent_id": srcAgent.Int64,
					"queue_id":     queueID.Int64,
					"stream_id":    streamID.Int64,
					"event_type":   "memory_copy_start",
					"duration":     int64(0),
				},
			},
			stream.Event{
				Name:      "memory_copy_end",
				Timestamp: end,
				Duration:  end - start,
				Category:  stream.CategoryMemoryCopy,
				PID:       optInt(pid),
				TID:       optInt(tid),
				QueueID:   optInt(queueID),
				StreamID:  optInt(streamID),
				Payload: map[string]any{
					"copy_name":  name,
					"size":       size.Int64,
					"event_type": "memory_copy_end",
					"duration":   end - start,
				},
			})
	}
	return events, rows.Err()
}

func (d *DB) loadMemoryAllocationEvents() ([]stream.Event, error) {
	// Older databases have no name_id column on the allocation table.
	query := `
		SELECT
			m.start, m."end", m.nid, m.pid, m.tid,
			m.size, m.agent_id,
			s.string AS name
		FROM rocpd_memory_allocate m
		JOIN rocpd_string s ON m.name_id = s.id
		ORDER BY m.start`
	if !d.hasColumn("rocpd_memory_allocate", "name_id") {
		query = `
		SELECT
			m.start, m."end", m.nid, m.pid, m.tid,
			m.size, m.agent_id,
			'memory_allocation' AS name
		FROM rocpd_memory_allocate m
		ORDER BY m.start`
	}

	rows, err := d.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("querying memory allocations: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var events []stream.Event
	for rows.Next() {
		var (
			start, end    int64
			nid, pid, tid sql.NullInt64
			size          sql.NullInt64
			agentID       sql.NullInt64
			name          string
		)
		if err := rows.Scan(&start, &end, &nid, &pid, &tid,
			&size, &agentID, &name); err != nil {
			return nil, fmt.Errorf("scanning memory allocation row: %w", err)
		}

		events = append(events,
			stream.Event{
				Name:      "memory_allocation_start",
				Timestamp: start,
				Category:  stream.CategoryMemoryAllocation,
				PID:       optInt(pid),
				TID:       optInt(tid),
				AgentID:   optInt(agentID),
				Payload: map[string]any{
					"allocation_name": name,
					"size":            size.Int64,
					"agent_id":        agentID.Int64,
					"event_type":      "memory_allocation_start",
					"duration":        int64(0),
				},
			},
			stream.Event{
				Name:      "memory_allocation_end",
				Timestamp: end,
				Duration:  end - start,
				Category:  stream.CategoryMemoryAllocation,
				PID:       optInt(pid),
				TID:       optInt(tid),
				AgentID:   optInt(agentID),
				Payload: map[string]any{
					"allocation_name": name,
					"size":            size.Int64,
					"agent_id":        agentID.Int64,
					"event_type":      "memory_allocation_end",
					"duration":        end - start,
				},
			})
	}
	return events, rows.Err()
}

// optInt converts a nullable column into the pointer form the channel
// classifier keys on.
func optInt(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

// nullableInt keeps NULL distinct from zero inside raw payloads so the
// payload mapper's skip-null rule applies.
func nullableInt(n sql.NullInt64) any {
	if !n.Valid {
		return nil
	}
	return n.Int64
}

func stringOr(s sql.NullString, fallback string) string {
	if s.Valid && s.String != "" {
		return s.String
	}
	return fallback
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m)+2)
	for k, v := range m {
		out[k] = v
	}
	return out
}

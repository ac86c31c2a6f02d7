package dres

import "encoding/json"

// 2022+ descriptor schema: uids wrapped as {"string": ...}, target temporal
// range expressed directly in milliseconds. vbse2022 additionally carries
// per-task hints; 2023 reuses the 2022 layout.

type wireRun2022 struct {
	ID          json.RawMessage `json:"id"`
	Description struct {
		Teams []struct {
			Name string          `json:"name"`
			UID  json.RawMessage `json:"uid"`
		} `json:"teams"`
	} `json:"description"`
	Tasks []struct {
		Started     int64           `json:"started"`
		Ended       int64           `json:"ended"`
		Duration    int64           `json:"duration"`
		Position    int             `json:"position"`
		UID         json.RawMessage `json:"uid"`
		Description struct {
			Name     string `json:"name"`
			TaskType struct {
				Name string `json:"name"`
			} `json:"taskType"`
			Target struct {
				Item struct {
					Name string `json:"name"`
				} `json:"item"`
				TemporalRange struct {
					Start struct {
						Millisecond float64 `json:"millisecond"`
					} `json:"start"`
					End struct {
						Millisecond float64 `json:"millisecond"`
					} `json:"end"`
				} `json:"temporalRange"`
			} `json:"target"`
			Hints []struct {
				Text    string `json:"text"`
				ShownAt int64  `json:"shownAt"`
			} `json:"hints"`
		} `json:"description"`
		Submissions []struct {
			TeamID    json.RawMessage `json:"teamId"`
			MemberID  json.RawMessage `json:"memberId"`
			Timestamp int64           `json:"timestamp"`
			Status    string          `json:"status"`
			ItemName  string          `json:"itemName"`
		} `json:"submissions"`
	} `json:"tasks"`
}

func decodeRun2022(data []byte) (*Run, error) {
	var wire wireRun2022
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}

	run := &Run{}
	var err error
	if run.ID, err = decodeUID(wire.ID); err != nil {
		return nil, err
	}

	for _, t := range wire.Description.Teams {
		uid, err := decodeUID(t.UID)
		if err != nil {
			return nil, err
		}
		run.Teams = append(run.Teams, TeamRecord{Name: t.Name, UID: uid})
	}

	for _, t := range wire.Tasks {
		rec := TaskRecord{
			Name:          t.Description.Name,
			TaskType:      t.Description.TaskType.Name,
			Position:      t.Position,
			StartedMs:     t.Started,
			EndedMs:       t.Ended,
			DurationMs:    t.Duration,
			TargetVideoID: t.Description.Target.Item.Name,
			TargetStartMs: int64(t.Description.Target.TemporalRange.Start.Millisecond),
			TargetEndMs:   int64(t.Description.Target.TemporalRange.End.Millisecond),
		}
		if rec.UID, err = decodeUID(t.UID); err != nil {
			return nil, err
		}
		for _, h := range t.Description.Hints {
			rec.Hints = append(rec.Hints, Hint{Text: h.Text, ShownAt: h.ShownAt})
		}
		for _, s := range t.Submissions {
			teamUID, err := decodeUID(s.TeamID)
			if err != nil {
				return nil, err
			}
			memberUID, err := decodeUID(s.MemberID)
			if err != nil {
				return nil, err
			}
			rec.Submissions = append(rec.Submissions, Submission{
				TeamUID:   teamUID,
				MemberUID: memberUID,
				Timestamp: s.Timestamp,
				Status:    s.Status,
				ItemName:  s.ItemName,
			})
		}
		run.Tasks = append(run.Tasks, rec)
	}
	return run, nil
}

package dres

import "encoding/json"

// 2021 descriptor schema: plain string uids, target temporal range
// expressed in seconds under a "value" key.

type wireRun2021 struct {
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
						Value float64 `json:"value"`
					} `json:"start"`
					End struct {
						Value float64 `json:"value"`
					} `json:"end"`
				} `json:"temporalRange"`
			} `json:"target"`
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

func decodeRun2021(data []byte) (*Run, error) {
	var wire wireRun2021
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
			// 2021 temporal ranges are in seconds.
			TargetStartMs: int64(t.Description.Target.TemporalRange.Start.Value * 1000),
			TargetEndMs:   int64(t.Description.Target.TemporalRange.End.Value * 1000),
		}
		if rec.UID, err = decodeUID(t.UID); err != nil {
			return nil, err
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

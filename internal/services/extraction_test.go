package services

import "testing"

func TestParseSlotJSON_Plain(t *testing.T) {
	slots, err := ParseSlotJSON(`{"slots":[{"dayOfWeek":"Monday","startTime":"09:00","endTime":"10:30","subject":"Mathematics","isFree":false}]}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("parsed %d slots, expected 1", len(slots))
	}
	if slots[0].DayOfWeek != "Monday" || slots[0].Subject != "Mathematics" || slots[0].IsFree {
		t.Errorf("unexpected slot: %+v", slots[0])
	}
}

func TestParseSlotJSON_MarkdownFence(t *testing.T) {
	text := "Here is the timetable:\n```json\n{\"slots\":[{\"dayOfWeek\":\"Friday\",\"startTime\":\"14:00\",\"endTime\":\"15:00\",\"subject\":\"Free\",\"isFree\":true}]}\n```"
	slots, err := ParseSlotJSON(text)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(slots) != 1 || !slots[0].IsFree {
		t.Errorf("unexpected slots: %+v", slots)
	}
}

func TestParseSlotJSON_FenceWithoutLanguage(t *testing.T) {
	text := "```\n{\"slots\":[]}\n```"
	slots, err := ParseSlotJSON(text)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("parsed %d slots, expected 0", len(slots))
	}
}

func TestParseSlotJSON_Malformed(t *testing.T) {
	if _, err := ParseSlotJSON("the timetable shows classes on Monday"); err == nil {
		t.Error("expected error for non-JSON response")
	}
}

func TestParseSlotJSON_EmptySlots(t *testing.T) {
	slots, err := ParseSlotJSON(`{"slots":[]}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("parsed %d slots, expected 0", len(slots))
	}
}

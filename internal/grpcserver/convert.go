package grpcserver

import (
	"github.com/mvpaudrey/afcon-live/internal/model"
	"github.com/mvpaudrey/afcon-live/internal/pb"
)

func int32Ptr(i *int) *int32 {
	if i == nil {
		return nil
	}
	v := int32(*i)
	return &v
}

func teamToWire(t model.Team) pb.TeamMessage {
	return pb.TeamMessage{ID: t.ID, Name: t.Name, Logo: t.Logo, Winner: t.Winner}
}

func fixtureToWire(f model.Fixture) pb.FixtureMessage {
	return pb.FixtureMessage{
		APIFixtureID:   f.APIFixtureID,
		LeagueID:       f.LeagueID,
		Season:         int32(f.Season),
		Competition:    f.Competition,
		KickoffInstant: f.KickoffInstant,
		StatusShort:    string(f.StatusShort),
		StatusLong:     f.StatusLong,
		ElapsedMinutes: int32Ptr(f.ElapsedMinutes),
		ExtraMinutes:   int32Ptr(f.ExtraMinutes),
		HomeTeam:       teamToWire(f.HomeTeam),
		AwayTeam:       teamToWire(f.AwayTeam),
		HomeGoals:      int32Ptr(f.HomeGoals),
		AwayGoals:      int32Ptr(f.AwayGoals),
		HalftimeHome:   int32Ptr(f.HalftimeHome),
		HalftimeAway:   int32Ptr(f.HalftimeAway),
		FulltimeHome:   int32Ptr(f.FulltimeHome),
		FulltimeAway:   int32Ptr(f.FulltimeAway),
		Venue:          f.Venue,
		Referee:        f.Referee,
	}
}

func statusToWire(s model.FixtureStatus) pb.FixtureStatusMessage {
	return pb.FixtureStatusMessage{
		Short:          string(s.Short),
		Long:           s.Long,
		ElapsedMinutes: int32Ptr(s.ElapsedMinutes),
		ExtraMinutes:   int32Ptr(s.ExtraMinutes),
	}
}

func eventToWire(e model.FixtureEvent) pb.FixtureEventMessage {
	return pb.FixtureEventMessage{
		ElapsedMinutes: int32(e.ElapsedMinutes),
		ExtraMinutes:   int32(e.ExtraMinutes),
		TeamID:         e.TeamID,
		PlayerID:       e.PlayerID,
		PlayerName:     e.PlayerName,
		AssistID:       e.AssistID,
		AssistName:     e.AssistName,
		Kind:           string(e.Kind),
		Detail:         e.Detail,
		Comments:       e.Comments,
	}
}

func eventsToWire(events []model.FixtureEvent) []pb.FixtureEventMessage {
	out := make([]pb.FixtureEventMessage, len(events))
	for i, e := range events {
		out[i] = eventToWire(e)
	}
	return out
}

func updateToWire(u model.Update) *pb.LiveMatchUpdate {
	var trigger *pb.FixtureEventMessage
	if u.TriggerEvent != nil {
		t := eventToWire(*u.TriggerEvent)
		trigger = &t
	}
	return &pb.LiveMatchUpdate{
		FixtureID:    int32(u.FixtureID),
		EmissionTime: u.EmissionTime,
		EventType:    string(u.Kind),
		Fixture:      fixtureToWire(u.Fixture),
		Status:       statusToWire(u.Status),
		Events:       eventsToWire(u.Events),
		TriggerEvent: trigger,
	}
}

func fixturesToWire(fs []model.Fixture) []pb.FixtureMessage {
	out := make([]pb.FixtureMessage, len(fs))
	for i, f := range fs {
		out[i] = fixtureToWire(f)
	}
	return out
}

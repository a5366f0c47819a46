package service

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var RoomCodeRule = []validation.Rule{
	validation.Required,
	validation.Match(regexp.MustCompile("^[A-Z0-9]{6}$")),
}

var ActionRule = []validation.Rule{
	validation.Required,
	validation.In(ActionPlay, ActionPause),
}

var CurrentTimeRule = []validation.Rule{
	validation.Min(0.0),
}

var EpisodeIdRule = []validation.Rule{
	validation.Required,
	validation.RuneLength(1, 256),
}

var ChatMessageRule = []validation.Rule{
	validation.Required,
	validation.RuneLength(1, 1000),
}

package ui

import "eatlog/internal/model"

type promptKind int

const (
	promptAddType promptKind = iota
	promptDelete
	promptConvert
)

// prompt is the one-key question shown in confirm mode.
type prompt struct {
	kind   promptKind
	target *model.Experience
}

func (p *prompt) message() string {
	switch p.kind {
	case promptAddType:
		return "Add what?  [r] restaurant  [h] home meal  [w] wishlist"
	case promptDelete:
		return "Delete " + p.target.Name + " and all its photos?  [y] yes  [n] no"
	case promptConvert:
		return "Mark " + p.target.Name + " visited as  [r] restaurant visit  [h] home meal"
	default:
		return ""
	}
}

func (p *prompt) help() []string {
	switch p.kind {
	case promptDelete:
		return []string{helpKey("y", "delete"), helpKey("n/esc", "keep")}
	default:
		return []string{helpKey("r/h/w", "choose"), helpKey("esc", "cancel")}
	}
}

// choice maps a key to the experience type it selects in this prompt.
func (p *prompt) choice(key string) (model.ExperienceType, bool) {
	switch key {
	case "r":
		return model.TypeRestaurant, true
	case "h":
		return model.TypeHomeMeal, true
	case "w":
		if p.kind == promptAddType {
			return model.TypeWishlist, true
		}
	}
	return "", false
}

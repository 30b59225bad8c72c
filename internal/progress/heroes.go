package progress

import "fmt"

// Hero is a selectable avatar. Purely cosmetic.
type Hero struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Element     string `json:"type"`
	Gender      string `json:"gender"`
	Description string `json:"description"`
}

// Heroes is the fixed avatar catalog.
var Heroes = []Hero{
	{ID: "h1", Name: "Princess Sky", Element: "Wind", Gender: "F", Description: "灵动如风，探索未知的词汇秘境。"},
	{ID: "h2", Name: "Prince Valiant", Element: "Fire", Gender: "M", Description: "勇敢的守护者，用魔法卷轴击碎障碍。"},
	{ID: "h3", Name: "Little Red", Element: "Night", Gender: "F", Description: "漫步在单词森林的暗影使者。"},
	{ID: "h4", Name: "Princess Ivy", Element: "Earth", Gender: "F", Description: "稳重如土，深扎根基的智慧化身。"},
}

// FindHero looks a hero up by id.
func FindHero(id string) (Hero, bool) {
	for _, h := range Heroes {
		if h.ID == id {
			return h, true
		}
	}
	return Hero{}, false
}

// SelectHero assigns an avatar to the user.
func SelectHero(u *User, heroID string) error {
	if _, ok := FindHero(heroID); !ok {
		return fmt.Errorf("unknown hero %q", heroID)
	}
	u.HeroID = heroID
	return nil
}

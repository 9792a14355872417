package display

// Fallback tokens for levels outside 1-5.
const (
	DefaultColor    = "text-slate-400"
	DefaultGradient = "from-slate-500 to-slate-700"
)

var levelColors = map[int]string{
	1: "text-zinc-400",
	2: "text-sky-400",
	3: "text-violet-400",
	4: "text-amber-400",
	5: "text-fuchsia-400",
}

var levelGradients = map[int]string{
	1: "from-zinc-500 to-zinc-700",
	2: "from-sky-500 to-blue-700",
	3: "from-violet-500 to-purple-700",
	4: "from-amber-400 to-orange-600",
	5: "from-fuchsia-500 via-pink-500 to-rose-500",
}

// LevelColor returns the text colour token for a level.
func LevelColor(level int) string {
	if c, ok := levelColors[level]; ok {
		return c
	}
	return DefaultColor
}

// LevelGradient returns the background gradient token for a level.
func LevelGradient(level int) string {
	if g, ok := levelGradients[level]; ok {
		return g
	}
	return DefaultGradient
}

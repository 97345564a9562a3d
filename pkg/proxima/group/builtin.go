package group

// Common pronoun series.
var (
	HeSeries    = NewSeries("Masc", []string{"he", "his", "him", "himself"}, "he", "him")
	SheSeries   = NewSeries("Fem", []string{"she", "her", "hers", "herself"}, "she", "her")
	TheySeries  = NewSeries("Andy", []string{"they", "them", "theirs", "themself"}, "they", "them")
	ItSeries    = NewSeries("It", []string{"it", "itself"}, "it", "it")
	XeSeries    = NewSeries("Xe", []string{"xe", "xem", "xyr", "xyrs", "xemself"}, "xe", "xem")
	AeSeries    = NewSeries("Ae", []string{"ae", "aer", "aers", "aerself"}, "ae", "aer")
	FaeSeries   = NewSeries("Fae", []string{"fae", "faer", "faers", "faerself"}, "fae", "faer")
	EySeries    = NewSeries("Ey", []string{"ey", "em", "eir", "eirs", "eirself"}, "ey", "em")
	VeSeries    = NewSeries("Ve", []string{"ve", "ver", "vis", "verself"}, "ve", "ver")
	PerSeries   = NewSeries("Per", []string{"per", "pers", "perself"}, "per", "per")
	ZeHirSeries = NewSeries("Ze", []string{"ze", "hir", "hirs", "hirself"}, "ze", "hir")
)

// Names of the built-in groups.
const (
	MaleName      = "Male"
	FemaleName    = "Female"
	NonbinaryName = "Nonbinary"
	NeoName       = "Neo"
)

// Male returns the built-in masculine group.
func Male() Group { return New(MaleName, []PronounSeries{HeSeries}) }

// Female returns the built-in feminine group.
func Female() Group { return New(FemaleName, []PronounSeries{SheSeries}) }

// Nonbinary returns the built-in they/them group.
func Nonbinary() Group { return New(NonbinaryName, []PronounSeries{TheySeries}) }

// Neo returns a group tracking the common neopronoun series.
func Neo() Group {
	return New(NeoName, []PronounSeries{
		XeSeries, AeSeries, FaeSeries, EySeries, VeSeries, PerSeries, ZeHirSeries,
	})
}

// Binary returns Female and Male, in that order.
func Binary() []Group { return []Group{Female(), Male()} }

// Trinary returns Female, Male and Nonbinary.
func Trinary() []Group { return []Group{Female(), Male(), Nonbinary()} }

// Builtin looks up a built-in group by name.
func Builtin(name string) (Group, bool) {
	switch name {
	case MaleName:
		return Male(), true
	case FemaleName:
		return Female(), true
	case NonbinaryName:
		return Nonbinary(), true
	case NeoName:
		return Neo(), true
	}
	return Group{}, false
}

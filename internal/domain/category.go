package domain

import "strings"

// Category is an index category code such as "1_2"
type Category string

const (
	CategoryAll Category = "0_0"

	CategoryAnime                Category = "1_0"
	CategoryAnimeMusicVideo      Category = "1_1"
	CategoryAnimeEnglish         Category = "1_2"
	CategoryAnimeNonEnglish      Category = "1_3"
	CategoryAnimeRaw             Category = "1_4"
	CategoryAudio                Category = "2_0"
	CategoryAudioLossless        Category = "2_1"
	CategoryAudioLossy           Category = "2_2"
	CategoryLiterature           Category = "3_0"
	CategoryLiteratureEnglish    Category = "3_1"
	CategoryLiteratureNonEnglish Category = "3_2"
	CategoryLiteratureRaw        Category = "3_3"
	CategoryLiveAction           Category = "4_0"
	CategoryLiveActionEnglish    Category = "4_1"
	CategoryLiveActionIdolPV     Category = "4_2"
	CategoryLiveActionNonEnglish Category = "4_3"
	CategoryLiveActionRaw        Category = "4_4"
	CategoryPictures             Category = "5_0"
	CategoryPicturesGraphics     Category = "5_1"
	CategoryPicturesPhotos       Category = "5_2"
	CategorySoftware             Category = "6_0"
	CategorySoftwareApplications Category = "6_1"
	CategorySoftwareGames        Category = "6_2"

	// CategoryOther collects results whose category is not in the table
	CategoryOther Category = "other"
)

// CategoryInfo describes an entry of the category table
type CategoryInfo struct {
	Code  Category `json:"code"`
	Name  string   `json:"name"`
	Short string   `json:"short"`
}

// Categories is the fixed category table in display order
var Categories = []CategoryInfo{
	{CategoryAll, "All Categories", ""},
	{CategoryAnime, "Anime", "Anime"},
	{CategoryAnimeMusicVideo, "Anime - Anime Music Video", "AMV"},
	{CategoryAnimeEnglish, "Anime - English-translated", "Subs"},
	{CategoryAnimeNonEnglish, "Anime - Non-English-translated", "Subs"},
	{CategoryAnimeRaw, "Anime - Raw", "Raw"},
	{CategoryAudio, "Audio", "Audio"},
	{CategoryAudioLossless, "Audio - Lossless", "FLAC"},
	{CategoryAudioLossy, "Audio - Lossy", "MP3"},
	{CategoryLiterature, "Literature", "Lit"},
	{CategoryLiteratureEnglish, "Literature - English-translated", "Lit"},
	{CategoryLiteratureNonEnglish, "Literature - Non-English-translated", "Lit"},
	{CategoryLiteratureRaw, "Literature - Raw", "Lit"},
	{CategoryLiveAction, "Live Action", "Live"},
	{CategoryLiveActionEnglish, "Live Action - English-translated", "Live"},
	{CategoryLiveActionIdolPV, "Live Action - Idol/Promotional Video", "PV"},
	{CategoryLiveActionNonEnglish, "Live Action - Non-English-translated", "Live"},
	{CategoryLiveActionRaw, "Live Action - Raw", "Live"},
	{CategoryPictures, "Pictures", "Pics"},
	{CategoryPicturesGraphics, "Pictures - Graphics", "Gfx"},
	{CategoryPicturesPhotos, "Pictures - Photos", "Pics"},
	{CategorySoftware, "Software", "Soft"},
	{CategorySoftwareApplications, "Software - Applications", "Apps"},
	{CategorySoftwareGames, "Software - Games", "Game"},
}

var (
	categoryByCode = make(map[Category]CategoryInfo, len(Categories))
	categoryByName = make(map[string]Category, len(Categories))
)

func init() {
	for _, c := range Categories {
		categoryByCode[c.Code] = c
		categoryByName[strings.ToLower(c.Name)] = c.Code
	}
}

// LookupCategory maps a category code or display name to the closed
// enumeration. Unknown values map to CategoryOther.
func LookupCategory(s string) Category {
	s = strings.TrimSpace(s)
	if _, ok := categoryByCode[Category(s)]; ok {
		return Category(s)
	}
	if code, ok := categoryByName[strings.ToLower(s)]; ok {
		return code
	}
	return CategoryOther
}

// Info returns the table entry for the category
func (c Category) Info() CategoryInfo {
	if info, ok := categoryByCode[c]; ok {
		return info
	}
	return CategoryInfo{Code: CategoryOther, Name: "Other", Short: "?"}
}

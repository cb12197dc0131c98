package library

import (
	"fmt"
	"strconv"

	id3v2 "github.com/bogem/id3v2/v2"

	"github.com/desertthunder/wavecap/internal/shared"
)

// ratingFrameID is the ID3v2 user-defined text frame carrying star ratings,
// stored with description "RATING" and a "1".."5" value.
const (
	ratingFrameID   = "TXXX"
	ratingFrameDesc = "RATING"
)

// ReadTags reads artist, title and star rating from a file's ID3 tag. A
// missing or unreadable tag is not an error to callers that can fall back to
// filename parsing, so err is only set when the file cannot be opened.
func ReadTags(path string) (artist, title string, rating int, err error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return "", "", 0, fmt.Errorf("%w: opening id3 tag: %v", shared.ErrInvalidInput, err)
	}
	defer tag.Close()

	artist = tag.Artist()
	title = tag.Title()

	for _, frame := range tag.GetFrames(ratingFrameID) {
		udt, ok := frame.(id3v2.UserDefinedTextFrame)
		if !ok || udt.Description != ratingFrameDesc {
			continue
		}
		if v, convErr := strconv.Atoi(udt.Value); convErr == nil && v >= 1 && v <= 5 {
			rating = v
		}
		break
	}
	return artist, title, rating, nil
}

// SetRating writes a star rating into the file's ID3 tag. Zero clears the
// rating frame. Unrelated user-defined frames are preserved.
func SetRating(path string, rating int) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("%w: opening id3 tag: %v", shared.ErrInvalidInput, err)
	}
	defer tag.Close()

	var keep []id3v2.UserDefinedTextFrame
	for _, frame := range tag.GetFrames(ratingFrameID) {
		udt, ok := frame.(id3v2.UserDefinedTextFrame)
		if ok && udt.Description != ratingFrameDesc {
			keep = append(keep, udt)
		}
	}

	tag.DeleteFrames(ratingFrameID)
	for _, udt := range keep {
		tag.AddUserDefinedTextFrame(udt)
	}
	if rating > 0 {
		tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
			Encoding:    id3v2.EncodingUTF8,
			Description: ratingFrameDesc,
			Value:       strconv.Itoa(rating),
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("%w: saving id3 tag: %v", shared.ErrInvalidInput, err)
	}
	return nil
}

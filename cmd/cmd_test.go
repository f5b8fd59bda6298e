package cmd

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eatlog/internal/model"
)

func TestSessionFiles(t *testing.T) {
	dir := t.TempDir()

	token, err := loadSession(dir)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, saveSession(dir, " abc.def.ghi "))
	token, err = loadSession(dir)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	info, err := os.Stat(sessionPath(dir))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, clearSession(dir))
	require.NoError(t, clearSession(dir), "clearing twice is fine")
	token, err = loadSession(dir)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestSignInSettings(t *testing.T) {
	dir := t.TempDir()

	s, err := loadSignInSettings(dir)
	require.NoError(t, err)
	assert.Empty(t, s.Email)

	require.NoError(t, saveSignInSettings(dir, signInSettings{Email: "brett@example.com"}))
	s, err = loadSignInSettings(dir)
	require.NoError(t, err)
	assert.Equal(t, "brett@example.com", s.Email)
}

func TestLoadOrCreateSecret(t *testing.T) {
	dir := t.TempDir()

	first, err := loadOrCreateSecret(dir)
	require.NoError(t, err)
	assert.Len(t, first, 64)

	again, err := loadOrCreateSecret(dir)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	info, err := os.Stat(secretPath(dir))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, os.WriteFile(secretPath(dir), []byte("short\n"), 0o600))
	replaced, err := loadOrCreateSecret(dir)
	require.NoError(t, err)
	assert.NotEqual(t, first, replaced)
	assert.Len(t, replaced, 64)
}

func TestReadLine(t *testing.T) {
	r := strings.NewReader("first\n  second  \nlast")

	for _, want := range []string{"first", "second", "last"} {
		got, err := readLine(r)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := readLine(r)
	assert.ErrorIs(t, err, errCanceled)
}

func TestMatchExperience(t *testing.T) {
	a := &model.Experience{ID: uuid.MustParse("3f2a0000-0000-4000-8000-000000000001"), Name: "Som Tam"}
	b := &model.Experience{ID: uuid.MustParse("3f2b0000-0000-4000-8000-000000000002"), Name: "Noma"}
	list := []*model.Experience{a, b}

	got, err := matchExperience(list, "3F2A")
	require.NoError(t, err)
	assert.Equal(t, "Som Tam", got.Name)

	_, err = matchExperience(list, "3f2")
	assert.ErrorContains(t, err, "matches 2 experiences")

	_, err = matchExperience(list, "ffff")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = matchExperience(list, " ")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestMatchPhoto(t *testing.T) {
	photos := []model.Photo{
		{ID: uuid.MustParse("aa000000-0000-4000-8000-000000000001")},
		{ID: uuid.MustParse("ab000000-0000-4000-8000-000000000002")},
	}

	got, err := matchPhoto(photos, "ab")
	require.NoError(t, err)
	assert.Equal(t, photos[1].ID, got.ID)

	_, err = matchPhoto(photos, "a")
	assert.ErrorContains(t, err, "matches 2 photos")

	_, err = matchPhoto(photos, "")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestListFlags_Filter(t *testing.T) {
	filter, key, err := listFlags{typ: "home-meal", sort: "rating", tags: []string{" Comfort "}, from: "2024-06-01"}.filter()
	require.NoError(t, err)
	assert.Equal(t, model.TypeHomeMeal, filter.Type)
	assert.Equal(t, "rating", string(key))
	assert.Equal(t, []string{"comfort"}, filter.Tags)
	require.NotNil(t, filter.From)
	assert.Equal(t, "2024-06-01", filter.From.Format(model.DateLayout))

	_, _, err = listFlags{typ: "brunch", sort: "price", from: "2024-07-01", to: "2024-06-01"}.filter()
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.HasField("type"))
	assert.True(t, verr.HasField("sort"))
	assert.True(t, verr.HasField("from"))
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	printError(&buf, &model.ValidationError{Errors: []model.FieldError{
		{Field: "name", Message: "required"},
		{Field: "date", Message: "use YYYY-MM-DD"},
	}})
	assert.Equal(t, "Error: invalid input\n  name: required\n  date: use YYYY-MM-DD\n", buf.String())

	buf.Reset()
	printError(&buf, errNotSignedIn)
	assert.Contains(t, buf.String(), "not signed in")
}

// cli runs commands against one data directory.
type cli struct {
	t   *testing.T
	dir string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	t.Setenv("EATLOG_CONFIG", "")
	t.Setenv("EATLOG_DATA_DIR", "")
	t.Setenv("EATLOG_DB_PATH", "")
	t.Setenv("EATLOG_STORAGE_DIR", "")
	t.Setenv("EATLOG_AUTH_JWT_SECRET", "")
	t.Setenv("EATLOG_AUTH_BCRYPT_COST", "4")
	t.Setenv("EATLOG_TIME_ZONE", "UTC")
	t.Setenv("EATLOG_DINER_FIRST", "Brett")
	t.Setenv("EATLOG_DINER_SECOND", "Jean")
	return &cli{t: t, dir: t.TempDir()}
}

func (c *cli) runWithInput(stdin string, args ...string) (string, string, error) {
	c.t.Helper()
	root := newRootCmd("test")
	var out, errOut bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--data-dir", c.dir}, args...))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := root.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

func (c *cli) run(args ...string) string {
	c.t.Helper()
	out, errOut, err := c.runWithInput("", args...)
	require.NoError(c.t, err, "eatlog %s\nstderr: %s", strings.Join(args, " "), errOut)
	return out
}

// firstField returns the first word of the first output line, which is the
// short id add and convert print.
func firstField(out string) string {
	line, _, _ := strings.Cut(out, "\n")
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func TestCLI_AccountLifecycle(t *testing.T) {
	c := newCLI(t)

	_, _, err := c.runWithInput("", "whoami")
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	out := c.run("signup", "--email", "brett@example.com", "--password", "secret1", "--name", "Brett")
	assert.Contains(t, out, "Signed in as Brett <brett@example.com>")
	assert.Contains(t, c.run("whoami"), "Brett <brett@example.com>")

	out = c.run("set-name", "Somebody")
	assert.Contains(t, out, "matches neither Brett nor Jean")

	c.run("logout")
	_, _, err = c.runWithInput("", "whoami")
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	// Email comes from the remembered sign-in, the password from stdin.
	out, _, err = c.runWithInput("secret1\n", "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as Somebody")

	_, _, err = c.runWithInput("", "login", "--email", "brett@example.com", "--password", "wrong-one")
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	out = c.run("reset-password", "--email", "brett@example.com")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	token := strings.TrimSpace(lines[1])

	out = c.run("reset-password", "--token", token, "--password", "secret2")
	assert.Contains(t, out, "Signed in")

	_, _, err = c.runWithInput("", "reset-password", "--token", token, "--password", "secret3")
	assert.Error(t, err, "a reset token works once")

	out, _, err = c.runWithInput("secret2\nsecret4\n", "update-password")
	require.NoError(t, err)
	assert.Contains(t, out, "Password updated")
	c.run("login", "--email", "brett@example.com", "--password", "secret4")

	out = c.run("reset-password", "--email", "nobody@example.com")
	assert.Contains(t, out, "If that account exists")
}

func TestCLI_Journal(t *testing.T) {
	c := newCLI(t)
	c.run("signup", "--email", "brett@example.com", "--password", "secret1", "--name", "Brett")

	out := c.run("add", "restaurant", "Som Tam", "--date", "2024-06-01", "--first", "4.5", "--second", "4",
		"--cuisine", "thai", "--price", "$$", "--tag", "thai,spicy", "--cost", "48.50")
	somTam := firstField(out)
	assert.Len(t, somTam, 8)
	assert.Contains(t, out, "Added Som Tam")

	out = c.run("add", "wishlist", "Noma", "--priority", "high", "--url", "https://noma.dk")
	noma := firstField(out)

	_, errOut, err := c.runWithInput("", "add", "home-meal", "Lasagna", "--date", "someday", "--servings", "many", "--first", "great")
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.HasField("date"))
	assert.True(t, verr.HasField("first_rating"))
	assert.False(t, verr.HasField("servings"), "unparseable servings are stored empty")
	assert.Empty(t, errOut, "Execute prints errors, not the command")

	_, _, err = c.runWithInput("", "add", "wishlist", "Geranium", "--date", "2024-06-01")
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.HasField("date"))

	out = c.run("list")
	assert.Contains(t, out, "Som Tam")
	assert.Contains(t, out, "Noma")
	assert.Less(t, strings.Index(out, "Noma"), strings.Index(out, "Som Tam"), "undated wishlist items sort by creation, newest first")

	out = c.run("list", "--type", "wishlist")
	assert.Contains(t, out, "Noma")
	assert.NotContains(t, out, "Som Tam")
	assert.Contains(t, c.run("list", "--query", "SPICY"), "Som Tam")
	assert.Contains(t, c.run("list", "--favorites"), "Nothing matches")

	out = c.run("edit", somTam, "--second", "5", "--notes", "Ask for extra lime")
	assert.Contains(t, out, "(version 2)")
	assert.Contains(t, out, "Saved Som Tam")

	out = c.run("show", somTam)
	assert.Contains(t, out, "Restaurant")
	assert.Contains(t, out, "Thai")
	assert.Contains(t, out, "$48.50")
	assert.Contains(t, out, "4.75")
	assert.Contains(t, out, "Ask for extra lime")
	assert.Contains(t, out, "Brett")

	assert.Contains(t, c.run("favorite", somTam), "Added to favorites")
	assert.Contains(t, c.run("list", "--favorites"), "Som Tam")
	assert.Contains(t, c.run("favorite", somTam, "--off"), "Removed from favorites")

	photo := filepath.Join(t.TempDir(), "plate.png")
	writePNG(t, photo)
	out = c.run("photo", "add", somTam, photo, photo)
	assert.Contains(t, out, "Added 2 of 2 photos to Som Tam (2/5)")
	assert.Contains(t, c.run("show", somTam), "Photos:")

	assert.Contains(t, c.run("places", "som"), "Som Tam")

	out = c.run("history", "--date", "2024-06-03")
	assert.Contains(t, out, "Saturday, June 1, 2024")
	assert.Contains(t, out, "Som Tam")
	assert.NotContains(t, out, "Noma")
	assert.Contains(t, c.run("history", "--date", "2020-01-01"), "Nothing on or before 2020-01-01")

	_, _, err = c.runWithInput("", "convert", somTam)
	assert.ErrorContains(t, err, "only wishlist items")

	out = c.run("convert", noma, "--to", "home-meal")
	assert.Contains(t, out, "Noma moved to home meal")
	_, _, err = c.runWithInput("", "show", noma)
	assert.ErrorIs(t, err, model.ErrNotFound)

	out, _, err = c.runWithInput("n\n", "delete", somTam)
	require.NoError(t, err)
	assert.Contains(t, out, "Kept Som Tam")

	out = c.run("delete", somTam, "--yes")
	assert.Contains(t, out, "Deleted Som Tam")
	assert.NotContains(t, c.run("list"), "Som Tam")
}

func TestCLI_UnparseableAmountsAreStoredEmpty(t *testing.T) {
	c := newCLI(t)
	c.run("signup", "--email", "jean@example.com", "--password", "secret1", "--name", "Jean")

	somTam := firstField(c.run("add", "restaurant", "Som Tam", "--date", "2024-06-01", "--cost", "lots"))
	out := c.run("show", somTam)
	assert.Contains(t, out, "Cost:")
	assert.NotContains(t, out, "$")

	lasagna := firstField(c.run("add", "home-meal", "Lasagna", "--date", "2024-06-02",
		"--servings", "many", "--cook-time", "soon"))
	out = c.run("show", lasagna)
	assert.Contains(t, out, "Lasagna")
	assert.NotContains(t, out, "Servings:")
	assert.NotContains(t, out, "min")

	c.run("edit", lasagna, "--servings", "4", "--cook-time", "45")
	out = c.run("show", lasagna)
	assert.Contains(t, out, "Servings:")
	assert.Contains(t, out, "45 min")

	c.run("edit", lasagna, "--servings", "a few")
	out = c.run("show", lasagna)
	assert.NotContains(t, out, "Servings:")
	assert.Contains(t, out, "45 min")
}

package validators

import (
	"bytes"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func fileHeader(t *testing.T, name string, data []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })

	return form.File["image"][0]
}

func TestEmailValidator(t *testing.T) {
	assert.NoError(t, EmailValidator("jane@x.com"))
	assert.ErrorIs(t, EmailValidator(""), ErrEmailEmpty)
	assert.ErrorIs(t, EmailValidator("jane"), ErrEmailInvalid)
	assert.ErrorIs(t, EmailValidator("Jane <jane@x.com>"), ErrEmailInvalid)
	assert.Equal(t, "jane@x.com", NormalizeEmail("  Jane@X.com "))
}

func TestPasswordValidator(t *testing.T) {
	tests := []struct {
		password string
		err      error
	}{
		{password: "Passw0rd!", err: nil},
		{password: "Abcdefg1", err: nil},
		{password: "", err: ErrPasswordEmpty},
		{password: "Short1A", err: ErrPasswordWeak},
		{password: "alllowercase1", err: ErrPasswordWeak},
		{password: "ALLUPPERCASE1", err: ErrPasswordWeak},
		{password: "NoDigitsHere", err: ErrPasswordWeak},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			err := PasswordValidator(tt.password)
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestImageValidator(t *testing.T) {
	img := pngBytes(t)

	t.Run("valid png", func(t *testing.T) {
		code, data, err := ImageValidator(fileHeader(t, "face.png", img), 1<<20, nil)
		require.NoError(t, err)
		assert.Zero(t, code)
		assert.Equal(t, img, data)
	})

	t.Run("uppercase extension", func(t *testing.T) {
		_, _, err := ImageValidator(fileHeader(t, "FACE.PNG", img), 1<<20, nil)
		assert.NoError(t, err)
	})

	t.Run("wrong extension", func(t *testing.T) {
		code, _, err := ImageValidator(fileHeader(t, "face.gif", img), 1<<20, nil)
		assert.ErrorIs(t, err, ErrFileTypeUnsupported)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("spoofed content", func(t *testing.T) {
		_, _, err := ImageValidator(fileHeader(t, "face.jpg", []byte("definitely not an image")), 1<<20, nil)
		assert.ErrorIs(t, err, ErrFileTypeUnsupported)
	})

	t.Run("too large", func(t *testing.T) {
		code, _, err := ImageValidator(fileHeader(t, "face.png", img), 10, nil)
		assert.ErrorIs(t, err, ErrFileTooLarge)
		assert.Equal(t, http.StatusRequestEntityTooLarge, code)
	})

	t.Run("nil header", func(t *testing.T) {
		_, _, err := ImageValidator(nil, 10, nil)
		assert.ErrorIs(t, err, ErrNoFile)
	})
}

type testForm struct {
	FirstName string `form:"first_name" validate:"required,min=2"`
	Email     string `form:"email" validate:"required,email"`
	Password  string `form:"password" validate:"required"`
	Confirm   string `form:"confirm" validate:"required,eqfield=Password"`
}

func TestStruct(t *testing.T) {
	fields := Struct(testForm{FirstName: "J", Email: "nope", Password: "a", Confirm: "b"})
	require.NotNil(t, fields)

	assert.Equal(t, []string{"must be at least 2 characters"}, fields["first_name"])
	assert.Equal(t, []string{"must be a valid email"}, fields["email"])
	assert.Equal(t, []string{"must match password"}, fields["confirm"])
	assert.Contains(t, fields.Summary(), "and 2 other error(s)")

	assert.Nil(t, Struct(testForm{FirstName: "Jane", Email: "jane@x.com", Password: "a", Confirm: "a"}))
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package epg

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

const sampleTXT = `tv.all
Понедельник. 15 января. Первый канал
06:00 Доброе утро
Утренняя программа
с ведущими
09:00 Новости
23:30 Фильм
01:00 Ночные новости
02:00 Профилактика
Вторник. 16 января. Первый канал
06:00 Утро
07:00 Новости
Понедельник. 15 января. НТВ
08:00 Сегодня
`

func fixedTXTOptions(now time.Time) TXTOptions {
	return TXTOptions{Now: func() time.Time { return now }, Location: time.UTC}
}

func TestParseTXT(t *testing.T) {
	opts := fixedTXTOptions(time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC))
	got, err := ParseTXT([]byte(sampleTXT), 0, opts)
	require.NoError(t, err)

	const jan15 = 1705276800
	const jan16 = jan15 + 86400
	want := map[string][]Programme{
		"Первый канал": {
			{Start: jan15 + 6*3600, Stop: jan15 + 9*3600, Title: "Доброе утро", Desc: "Утренняя программа\nс ведущими"},
			{Start: jan15 + 9*3600, Stop: jan15 + 23*3600 + 1800, Title: "Новости"},
			{Start: jan15 + 23*3600 + 1800, Stop: jan16 + 3600, Title: "Фильм"},
			{Start: jan16 + 3600, Stop: jan16 + 2*3600, Title: "Ночные новости"},
			{Start: jan16 + 2*3600, Stop: jan16 + 6*3600, Title: "Профилактика"},
			{Start: jan16 + 6*3600, Stop: jan16 + 7*3600, Title: "Утро"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseTXT mismatch (-want +got):\n%s", diff)
	}
}

func TestParseTXT_Windows1251MatchesUTF8(t *testing.T) {
	opts := fixedTXTOptions(time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC))
	encoded, err := charmap.Windows1251.NewEncoder().String(sampleTXT)
	require.NoError(t, err)

	fromUTF8, err := ParseTXT([]byte(sampleTXT), 0, opts)
	require.NoError(t, err)
	fromCP1251, err := ParseTXT([]byte(encoded), 0, opts)
	require.NoError(t, err)
	assert.Equal(t, fromUTF8, fromCP1251)
}

func TestParseTXT_YearBumpAndOffset(t *testing.T) {
	opts := fixedTXTOptions(time.Date(2024, time.December, 20, 12, 0, 0, 0, time.UTC))
	got, err := ParseTXT([]byte(sampleTXT), 2, opts)
	require.NoError(t, err)

	jan15 := float64(time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC).Unix())
	require.NotEmpty(t, got["Первый канал"])
	assert.Equal(t, jan15+6*3600+2*3600, got["Первый канал"][0].Start)
}

func TestParseTXT_DescriptionLookAheadIsBounded(t *testing.T) {
	var b strings.Builder
	b.WriteString("tv.all\nСреда. 3 марта. Канал\n10:00 Длинная передача\n")
	for i := 0; i < txtMaxDescLines+20; i++ {
		b.WriteString("строка описания\n")
	}
	b.WriteString("11:00 Следующая\n12:00 Конец\n")

	opts := fixedTXTOptions(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))
	got, err := ParseTXT([]byte(b.String()), 0, opts)
	require.NoError(t, err)
	require.Len(t, got["Канал"], 2)
	assert.Equal(t, txtMaxDescLines, strings.Count(got["Канал"][0].Desc, "\n")+1)
	assert.Equal(t, "Следующая", got["Канал"][1].Title)
}

func TestParseTXT_Unrecognized(t *testing.T) {
	for _, in := range []string{"", "<tv></tv>", "Понедельник. 15 января. НТВ\n08:00 Сегодня\n"} {
		_, err := ParseTXT([]byte(in), 0, TXTOptions{})
		require.ErrorIs(t, err, ErrUnrecognizedFormat, "input %q", in)
	}
}

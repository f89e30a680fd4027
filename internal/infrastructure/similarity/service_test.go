package similarity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/mall/internal/infrastructure/imageloader"
	"github.com/xiebiao/mall/pkg/baidu"
	apperrors "github.com/xiebiao/mall/pkg/errors"
)

type fakeVendor struct {
	addBrief   string
	addImage   string
	searchPN   int
	searchRN   int
	hits       []baidu.Hit
	deleted    []string
	err        error
	addCalls   int
	searchCall int
}

func (f *fakeVendor) Add(ctx context.Context, img, brief string) (*baidu.AddResult, error) {
	f.addCalls++
	f.addImage, f.addBrief = img, brief
	if f.err != nil {
		return nil, f.err
	}
	return &baidu.AddResult{ContSign: "abc123", LogID: "1"}, nil
}

func (f *fakeVendor) Search(ctx context.Context, img string, pn, rn int) (*baidu.SearchResult, error) {
	f.searchCall++
	f.searchPN, f.searchRN = pn, rn
	if f.err != nil {
		return nil, f.err
	}
	return &baidu.SearchResult{Hits: f.hits}, nil
}

func (f *fakeVendor) Delete(ctx context.Context, contSign string) (*baidu.DeleteResult, error) {
	f.deleted = append(f.deleted, contSign)
	if f.err != nil {
		return nil, f.err
	}
	return &baidu.DeleteResult{LogID: "2"}, nil
}

type fakeEncoder struct {
	calls int
	err   error
}

func (f *fakeEncoder) Encode(ctx context.Context, src imageloader.Source) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "b64:" + src.String(), nil
}

type fakeTokens struct{ err error }

func (f fakeTokens) Token(ctx context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "tok", nil
}

func TestEnroll(t *testing.T) {
	vendor := &fakeVendor{}
	svc := newService(vendor, &fakeEncoder{}, fakeTokens{})

	res, err := svc.Enroll(context.Background(), imageloader.FromRef("/uploads/a.jpg"), "42")
	require.NoError(t, err)
	assert.Equal(t, "abc123", res.ContSign)
	assert.Equal(t, "42", vendor.addBrief)
	assert.Equal(t, "b64:/uploads/a.jpg", vendor.addImage)
}

func TestTokenCheckedBeforeEncoding(t *testing.T) {
	vendor := &fakeVendor{}
	encoder := &fakeEncoder{}
	svc := newService(vendor, encoder, fakeTokens{err: baidu.ErrNotConfigured})

	_, err := svc.Enroll(context.Background(), imageloader.FromRef("/a.jpg"), "1")
	require.ErrorIs(t, err, baidu.ErrNotConfigured)

	_, err = svc.FindSimilar(context.Background(), imageloader.FromBytes([]byte("x")), 0, 10)
	require.ErrorIs(t, err, baidu.ErrNotConfigured)

	assert.Equal(t, 0, encoder.calls)
	assert.Equal(t, 0, vendor.addCalls)
	assert.Equal(t, 0, vendor.searchCall)
}

func TestEncodeErrorStopsCall(t *testing.T) {
	vendor := &fakeVendor{}
	readErr := apperrors.New(apperrors.ErrCodeImageRead, "读取图片失败: /a.jpg")
	svc := newService(vendor, &fakeEncoder{err: readErr}, fakeTokens{})

	_, err := svc.Enroll(context.Background(), imageloader.FromRef("/a.jpg"), "1")
	require.ErrorIs(t, err, readErr)
	assert.Equal(t, 0, vendor.addCalls)
}

func TestFindSimilar(t *testing.T) {
	vendor := &fakeVendor{hits: []baidu.Hit{{Brief: "42", Score: 0.81, ContSign: "abc"}}}
	svc := newService(vendor, &fakeEncoder{}, fakeTokens{})

	hits, err := svc.FindSimilar(context.Background(), imageloader.FromBytes([]byte("img")), 1, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 0.81, hits[0].Score)
	assert.Equal(t, 1, vendor.searchPN)
	assert.Equal(t, 5, vendor.searchRN)
}

func TestRemove(t *testing.T) {
	vendor := &fakeVendor{}
	svc := newService(vendor, &fakeEncoder{}, fakeTokens{})

	_, err := svc.Remove(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, []string{"abc123"}, vendor.deleted)

	vendor.err = errors.New("boom")
	_, err = svc.Remove(context.Background(), "abc123")
	require.Error(t, err)
}

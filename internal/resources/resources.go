// Package resources 提供 worker 启动时引擎所需的静态资源。
//
// 默认集合编译进二进制; 可用目录覆盖以便不重新编译就替换资源。
package resources

import (
	"embed"
	"io/fs"
	"os"

	apperrors "github.com/webview-bridge/go-webview-v2/pkg/errors"
)

//go:embed assets
var embedded embed.FS

// Provider 按名字读取资源。名字是相对路径 ("prefs.json")。
type Provider interface {
	Read(name string) ([]byte, error)
}

type fsProvider struct {
	fsys fs.FS
}

// Default 编译进二进制的内置资源集合。
func Default() Provider {
	sub, err := fs.Sub(embedded, "assets")
	if err != nil {
		// embed 目录在编译期固定, 不可能失败
		panic(err)
	}
	return &fsProvider{fsys: sub}
}

// NewFS 在任意 fs.FS 上建 Provider。
func NewFS(fsys fs.FS) Provider {
	return &fsProvider{fsys: fsys}
}

// NewDir 在磁盘目录上建 Provider, 用于运行期覆盖内置资源。
func NewDir(dir string) Provider {
	return &fsProvider{fsys: os.DirFS(dir)}
}

func (p *fsProvider) Read(name string) ([]byte, error) {
	data, err := fs.ReadFile(p.fsys, name)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "resources", "read %s", name)
	}
	return data, nil
}

// Layered 依次尝试多个 Provider, 返回第一个命中的结果。
// 典型用法: Layered(NewDir(override), Default())。
func Layered(providers ...Provider) Provider {
	return layered(providers)
}

type layered []Provider

func (l layered) Read(name string) ([]byte, error) {
	var lastErr error
	for _, p := range l {
		data, err := p.Read(name)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = apperrors.Wrapf(apperrors.ErrNotFound, "resources", "read %s", name)
	}
	return nil, lastErr
}

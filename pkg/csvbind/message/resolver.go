// Package message 消息资源包与消息插值
package message

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/magiconair/properties"
	"golang.org/x/text/language"

	"katydid-common-csv/pkg/csvbind/config"
)

var (
	// ErrMessageNotFound 所有资源包中都不存在该消息键
	ErrMessageNotFound = errors.New("message not found")
)

// FrameworkBundleName 内置资源包基础名
const FrameworkBundleName = "csvbind_messages"

//go:embed bundles/*.properties
var frameworkFS embed.FS

// Resolver 消息解析器
type Resolver interface {
	Resolve(key string, locale language.Tag) (string, error)
}

// ============================================================================
// bundle 一组按区域拆分的 .properties 文件
// ============================================================================

type bundle struct {
	fsys  fs.FS
	dir   string
	name  string
	cache sync.Map // 区域后缀 -> *properties.Properties，文件不存在时为空资源包
}

func newBundle(fsys fs.FS, dir, name string) *bundle {
	return &bundle{fsys: fsys, dir: dir, name: name}
}

// load 加载指定区域后缀的资源包，文件不存在时返回空资源包
func (b *bundle) load(suffix string) (*properties.Properties, error) {
	if cached, ok := b.cache.Load(suffix); ok {
		return cached.(*properties.Properties), nil
	}

	file := b.name
	if suffix != "" {
		file += "_" + suffix
	}
	file += ".properties"
	if b.dir != "" && b.dir != "." {
		file = b.dir + "/" + file
	}

	p := properties.NewProperties()
	data, err := fs.ReadFile(b.fsys, file)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read message bundle %s: %w", file, err)
	default:
		p, err = properties.Load(data, properties.UTF8)
		if err != nil {
			return nil, fmt.Errorf("parse message bundle %s: %w", file, err)
		}
	}
	p.DisableExpansion = true

	actual, _ := b.cache.LoadOrStore(suffix, p)
	return actual.(*properties.Properties), nil
}

// lookup 按区域回退顺序查找消息
func (b *bundle) lookup(key string, suffixes []string) (string, bool, error) {
	for _, suffix := range suffixes {
		p, err := b.load(suffix)
		if err != nil {
			return "", false, err
		}
		if msg, ok := p.Get(key); ok {
			return msg, true, nil
		}
	}
	return "", false, nil
}

// LocaleSuffixes 资源包文件名的区域后缀，按回退顺序排列，例如 ja-JP → [ja_JP ja ""]
func LocaleSuffixes(locale language.Tag) []string {
	if locale == language.Und {
		return []string{""}
	}

	base, _, region := locale.Raw()
	suffixes := make([]string, 0, 3)
	if region.String() != "ZZ" {
		suffixes = append(suffixes, base.String()+"_"+region.String())
	}
	if base.String() != "und" {
		suffixes = append(suffixes, base.String())
	}
	return append(suffixes, "")
}

// ============================================================================
// BundleResolver
// ============================================================================

// BundleResolver 基于 .properties 资源包的消息解析器
// 查找顺序：内存消息 → 用户资源包 → 内置资源包，每个资源包内按区域回退
// 可并发使用
type BundleResolver struct {
	overrides *properties.Properties
	user      *bundle
	framework *bundle
}

var _ Resolver = (*BundleResolver)(nil)

// BundleOption 解析器选项
type BundleOption func(*BundleResolver)

// WithBundleFS 从文件系统加载用户资源包，文件名为 <dir>/<name>[_<locale>].properties
func WithBundleFS(fsys fs.FS, dir, name string) BundleOption {
	return func(r *BundleResolver) {
		if fsys != nil && name != "" {
			r.user = newBundle(fsys, dir, name)
		}
	}
}

// WithBundleDir 从本地目录加载用户资源包
func WithBundleDir(dir, name string) BundleOption {
	return func(r *BundleResolver) {
		if dir != "" && name != "" {
			r.user = newBundle(os.DirFS(dir), ".", name)
		}
	}
}

// WithProperties 设置不区分区域的内存消息，优先级最高
func WithProperties(p *properties.Properties) BundleOption {
	return func(r *BundleResolver) {
		r.overrides = p
	}
}

// NewBundleResolver 创建消息解析器
func NewBundleResolver(opts ...BundleOption) *BundleResolver {
	r := &BundleResolver{
		framework: newBundle(frameworkFS, "bundles", FrameworkBundleName),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewBundleResolverFromConfig 按配置创建消息解析器
func NewBundleResolverFromConfig(c config.MessagesConfig) *BundleResolver {
	return NewBundleResolver(WithBundleDir(c.Dir, c.Name))
}

// Resolve 解析消息
func (r *BundleResolver) Resolve(key string, locale language.Tag) (string, error) {
	if r.overrides != nil {
		if msg, ok := r.overrides.Get(key); ok {
			return msg, nil
		}
	}

	suffixes := LocaleSuffixes(locale)
	for _, b := range []*bundle{r.user, r.framework} {
		if b == nil {
			continue
		}
		msg, ok, err := b.lookup(key, suffixes)
		if err != nil {
			return "", err
		}
		if ok {
			return msg, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrMessageNotFound, key)
}

// ============================================================================
// ChainResolver
// ============================================================================

// ChainResolver 依次尝试多个解析器，返回第一个找到的消息
type ChainResolver []Resolver

var _ Resolver = ChainResolver(nil)

// NewChainResolver 创建组合解析器，忽略 nil
func NewChainResolver(resolvers ...Resolver) ChainResolver {
	chain := make(ChainResolver, 0, len(resolvers))
	for _, r := range resolvers {
		if r != nil {
			chain = append(chain, r)
		}
	}
	return chain
}

// Resolve 解析消息，ErrMessageNotFound 以外的错误立即返回
func (c ChainResolver) Resolve(key string, locale language.Tag) (string, error) {
	for _, r := range c {
		msg, err := r.Resolve(key, locale)
		if err == nil {
			return msg, nil
		}
		if !errors.Is(err, ErrMessageNotFound) {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: %s", ErrMessageNotFound, key)
}

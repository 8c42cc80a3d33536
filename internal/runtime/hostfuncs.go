package runtime

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/risor-io/risor/object"

	"github.com/jward/assethook/internal/assets"
	"github.com/jward/assethook/internal/store"
)

// maxKeysBytes bounds how much of a file json_keys reads.
const maxKeysBytes = 8 << 20

// makeFileHashFn creates the "file_hash" host function.
//
// file_hash(path) → {"hash": string, "size": int}
func makeFileHashFn() *object.Builtin {
	return object.NewBuiltin("file_hash", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("file_hash", 1, len(args))
		}
		path, err := toString(args[0])
		if err != nil {
			return object.Errorf("file_hash: %v", err)
		}
		hash, size, err := store.FileHash(path)
		if err != nil {
			return object.Errorf("file_hash: %v", err)
		}
		return object.NewMap(map[string]object.Object{
			"hash": object.NewString(hash),
			"size": object.NewInt(size),
		})
	})
}

// makeJSONKeysFn creates the "json_keys" host function.
//
// json_keys(path) → []string, the top-level keys of a JSON document
func makeJSONKeysFn() *object.Builtin {
	return object.NewBuiltin("json_keys", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("json_keys", 1, len(args))
		}
		path, err := toString(args[0])
		if err != nil {
			return object.Errorf("json_keys: %v", err)
		}
		f, err := os.Open(path)
		if err != nil {
			return object.Errorf("json_keys: %v", err)
		}
		defer f.Close()
		src, err := io.ReadAll(io.LimitReader(f, maxKeysBytes))
		if err != nil {
			return object.Errorf("json_keys: reading %s: %v", path, err)
		}

		keys, err := assets.TopLevelKeys(ctx, src)
		if err != nil {
			return object.Errorf("json_keys: %v", err)
		}
		items := make([]object.Object, 0, len(keys))
		for _, k := range keys {
			items = append(items, object.NewString(k))
		}
		return object.NewList(items)
	})
}

// makeRecordAssetFn creates the "record_asset" host function. The file is
// hashed Go-side; an unchanged file is not rewritten.
//
// record_asset(path, kind) → bool (true if the ledger changed)
func makeRecordAssetFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("record_asset", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("record_asset", 2, len(args))
		}
		path, err := toString(args[0])
		if err != nil {
			return object.Errorf("record_asset: path: %v", err)
		}
		kind, err := toString(args[1])
		if err != nil {
			return object.Errorf("record_asset: kind: %v", err)
		}

		hash, size, err := store.FileHash(path)
		if err != nil {
			return object.Errorf("record_asset: %v", err)
		}
		changed, err := s.UpsertAsset(&store.Asset{
			Path:       path,
			Kind:       kind,
			Hash:       hash,
			Size:       size,
			ImportedAt: time.Now().UTC(),
		})
		if err != nil {
			return object.Errorf("record_asset: %v", err)
		}
		return object.NewBool(changed)
	})
}

// makeForgetAssetFn creates the "forget_asset" host function.
//
// forget_asset(path) → bool (true if a row was removed)
func makeForgetAssetFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("forget_asset", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("forget_asset", 1, len(args))
		}
		path, err := toString(args[0])
		if err != nil {
			return object.Errorf("forget_asset: %v", err)
		}
		removed, err := s.DeleteAsset(path)
		if err != nil {
			return object.Errorf("forget_asset: %v", err)
		}
		return object.NewBool(removed)
	})
}

// makeAssetByPathFn creates the "asset_by_path" host function.
//
// asset_by_path(path) → map or nil
func makeAssetByPathFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("asset_by_path", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("asset_by_path", 1, len(args))
		}
		path, err := toString(args[0])
		if err != nil {
			return object.Errorf("asset_by_path: %v", err)
		}
		a, err := s.AssetByPath(path)
		if err != nil {
			return object.Errorf("asset_by_path: %v", err)
		}
		if a == nil {
			return object.Nil
		}
		return assetToMap(a)
	})
}

// makeAssetsByKindFn creates the "assets_by_kind" host function.
//
// assets_by_kind(kind) → []map
func makeAssetsByKindFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("assets_by_kind", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("assets_by_kind", 1, len(args))
		}
		kind, err := toString(args[0])
		if err != nil {
			return object.Errorf("assets_by_kind: %v", err)
		}
		list, err := s.AssetsByKind(kind)
		if err != nil {
			return object.Errorf("assets_by_kind: %v", err)
		}
		items := make([]object.Object, 0, len(list))
		for _, a := range list {
			items = append(items, assetToMap(a))
		}
		return object.NewList(items)
	})
}

func assetToMap(a *store.Asset) *object.Map {
	return object.NewMap(map[string]object.Object{
		"id":          object.NewInt(a.ID),
		"path":        object.NewString(a.Path),
		"kind":        object.NewString(a.Kind),
		"hash":        object.NewString(a.Hash),
		"size":        object.NewInt(a.Size),
		"imported_at": object.NewString(a.ImportedAt.Format(time.RFC3339)),
	})
}

// makeDBQueryFn creates the "db_query" host function. Only SELECT
// statements are accepted.
//
// db_query(sql, args...) → []map
func makeDBQueryFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("db_query", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) < 1 {
			return object.Errorf("db_query: expected at least 1 argument (sql), got %d", len(args))
		}
		sqlStr, err := toString(args[0])
		if err != nil {
			return object.Errorf("db_query: %v", err)
		}
		if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(sqlStr)), "SELECT") {
			return object.Errorf("db_query: only SELECT queries are allowed")
		}

		var queryArgs []any
		for _, arg := range args[1:] {
			switch v := arg.(type) {
			case *object.Int:
				queryArgs = append(queryArgs, v.Value())
			case *object.Float:
				queryArgs = append(queryArgs, v.Value())
			case *object.String:
				queryArgs = append(queryArgs, v.Value())
			case *object.Bool:
				queryArgs = append(queryArgs, v.Value())
			case *object.NilType:
				queryArgs = append(queryArgs, nil)
			default:
				queryArgs = append(queryArgs, fmt.Sprintf("%v", arg))
			}
		}

		rows, err := s.DB().QueryContext(ctx, sqlStr, queryArgs...)
		if err != nil {
			return object.Errorf("db_query: %v", err)
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			return object.Errorf("db_query: columns: %v", err)
		}
		results := []object.Object{}
		for rows.Next() {
			values := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range values {
				ptrs[i] = &values[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return object.Errorf("db_query: scan: %v", err)
			}
			row := make(map[string]object.Object, len(cols))
			for i, col := range cols {
				row[col] = sqlValueToObject(values[i])
			}
			results = append(results, object.NewMap(row))
		}
		if err := rows.Err(); err != nil {
			return object.Errorf("db_query: rows: %v", err)
		}
		return object.NewList(results)
	})
}

func sqlValueToObject(v any) object.Object {
	switch val := v.(type) {
	case nil:
		return object.Nil
	case int64:
		return object.NewInt(val)
	case float64:
		return object.NewFloat(val)
	case string:
		return object.NewString(val)
	case bool:
		return object.NewBool(val)
	case []byte:
		return object.NewString(string(val))
	case time.Time:
		return object.NewString(val.Format(time.RFC3339))
	default:
		return object.NewString(fmt.Sprintf("%v", val))
	}
}

func toString(obj object.Object) (string, error) {
	if s, ok := obj.(*object.String); ok {
		return s.Value(), nil
	}
	return "", fmt.Errorf("expected string, got %s", obj.Type())
}

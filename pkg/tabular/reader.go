// Package tabular 使用内嵌 DuckDB 读取 Parquet / CSV 文件。
//
// 特征表与商品表都是列式文件，启动时整体读入内存；DuckDB 负责
// 文件格式解析与类型转换，调用方只按列名取值。
package tabular

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2" // DuckDB driver
)

// ColumnType 指定列读取时转换的目标类型
type ColumnType int

const (
	Float ColumnType = iota
	Int
	String
)

func (t ColumnType) sqlType() string {
	switch t {
	case Int:
		return "BIGINT"
	case String:
		return "VARCHAR"
	default:
		return "DOUBLE"
	}
}

// Column 描述要读取的一列
type Column struct {
	Name string
	Type ColumnType
}

// Value 是单元格的值。Valid 为 false 表示 null，按 Type 取对应字段。
type Value struct {
	Float float64
	Int   int64
	Str   string
	Valid bool
}

// Reader 持有一个内存 DuckDB 连接，可复用于多个文件。
type Reader struct {
	db *sql.DB
}

// Open 创建内存 DuckDB 连接
func Open() (*Reader, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	return &Reader{db: db}, nil
}

func (r *Reader) Close() error {
	return r.db.Close()
}

// DB 返回底层连接（测试中用于生成 Parquet 夹具）
func (r *Reader) DB() *sql.DB {
	return r.db
}

// Columns 返回文件的全部列名，按文件中的顺序。
func (r *Reader) Columns(ctx context.Context, path string) ([]string, error) {
	src, err := sourceSQL(path)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, "SELECT * FROM "+src+" LIMIT 0")
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	return cols, nil
}

// Scan 按文件行顺序读取指定列，每行回调一次 fn。row 从 0 开始。
// values 在回调之间复用，调用方需要自行拷贝。
func (r *Reader) Scan(ctx context.Context, path string, cols []Column, fn func(row int, values []Value) error) error {
	if len(cols) == 0 {
		return fmt.Errorf("scan %s: no columns", path)
	}
	src, err := sourceSQL(path)
	if err != nil {
		return err
	}

	exprs := make([]string, len(cols))
	for i, c := range cols {
		exprs[i] = fmt.Sprintf("CAST(%s AS %s)", QuoteIdent(c.Name), c.Type.sqlType())
	}
	query := "SELECT " + strings.Join(exprs, ", ") + " FROM " + src

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query %s: %w", path, err)
	}
	defer rows.Close()

	floats := make([]sql.NullFloat64, len(cols))
	ints := make([]sql.NullInt64, len(cols))
	strs := make([]sql.NullString, len(cols))
	dest := make([]any, len(cols))
	for i, c := range cols {
		switch c.Type {
		case Int:
			dest[i] = &ints[i]
		case String:
			dest[i] = &strs[i]
		default:
			dest[i] = &floats[i]
		}
	}

	values := make([]Value, len(cols))
	row := 0
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("scan %s row %d: %w", path, row, err)
		}
		for i, c := range cols {
			switch c.Type {
			case Int:
				values[i] = Value{Int: ints[i].Int64, Valid: ints[i].Valid}
			case String:
				values[i] = Value{Str: strs[i].String, Valid: strs[i].Valid}
			default:
				values[i] = Value{Float: floats[i].Float64, Valid: floats[i].Valid}
			}
		}
		if err := fn(row, values); err != nil {
			return err
		}
		row++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate %s: %w", path, err)
	}
	return nil
}

// sourceSQL 根据扩展名返回 DuckDB 表函数表达式
func sourceSQL(path string) (string, error) {
	lit := QuoteLiteral(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet", ".pq":
		return "read_parquet(" + lit + ")", nil
	case ".csv":
		return "read_csv_auto(" + lit + ", header=true)", nil
	default:
		return "", fmt.Errorf("unsupported table format: %s", path)
	}
}

// QuoteIdent 返回加双引号的 SQL 标识符
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteLiteral 返回加单引号的 SQL 字符串字面量
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

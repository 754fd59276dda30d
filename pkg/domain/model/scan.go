/*
 * @Description: 音乐库扫描结果模型（临时聚合，不落库）
 * @Author: 安知鱼
 * @Date: 2026-02-11 17:05:10
 * @LastEditTime: 2026-02-11 17:05:10
 * @LastEditors: 安知鱼
 */
package model

// ScanError 记录单个对象的处理失败，附带对象键便于排查
type ScanError struct {
	ObjectKey string `json:"objectKey"`
	Message   string `json:"message"`
}

// ScanResult 是一轮完整扫描的聚合统计。
// 它在编排器启动时创建，返回给调用方（API 或定时任务）后即被丢弃。
type ScanResult struct {
	ScannedCount     int         `json:"scannedCount"`
	NewCount         int         `json:"newCount"`
	UpdatedCount     int         `json:"updatedCount"`
	TotalCatalogSize int         `json:"totalCatalogSize"`
	DurationSeconds  float64     `json:"durationSeconds"`
	Errors           []ScanError `json:"errors,omitempty"`
}

// AddError 追加一条对象级错误，单个坏对象绝不中止整轮扫描
func (r *ScanResult) AddError(objectKey string, err error) {
	r.Errors = append(r.Errors, ScanError{ObjectKey: objectKey, Message: err.Error()})
}

package domain

// OverlayKind вид открытого поверх дня окна
type OverlayKind string

const (
	OverlayClosed      OverlayKind = "closed"
	OverlayCreate      OverlayKind = "create"
	OverlayEdit        OverlayKind = "edit"
	OverlayProductSale OverlayKind = "product_sale"
	OverlayDatePicker  OverlayKind = "date_picker"
)

// Overlay состояние окон дневного представления: одновременно открыто не больше одного.
// Черновик есть только у OverlayEdit, поля неэкспортируемые, чтобы нельзя было собрать
// недопустимую комбинацию.
type Overlay struct {
	kind  OverlayKind
	draft *AppointmentDraft
}

func ClosedOverlay() Overlay      { return Overlay{kind: OverlayClosed} }
func CreateOverlay() Overlay      { return Overlay{kind: OverlayCreate} }
func ProductSaleOverlay() Overlay { return Overlay{kind: OverlayProductSale} }
func DatePickerOverlay() Overlay  { return Overlay{kind: OverlayDatePicker} }

// EditOverlay открывает форму записи в режиме редактирования черновика
func EditOverlay(draft AppointmentDraft) Overlay {
	return Overlay{kind: OverlayEdit, draft: &draft}
}

// Kind возвращает вид окна; нулевое значение Overlay считается закрытым
func (o Overlay) Kind() OverlayKind {
	if o.kind == "" {
		return OverlayClosed
	}
	return o.kind
}

// Draft возвращает копию черновика, если открыто редактирование
func (o Overlay) Draft() (AppointmentDraft, bool) {
	if o.kind != OverlayEdit || o.draft == nil {
		return AppointmentDraft{}, false
	}
	return *o.draft, true
}

// ShowForm открыта ли форма записи (создание или редактирование)
func (o Overlay) ShowForm() bool {
	return o.kind == OverlayCreate || o.kind == OverlayEdit
}

// ShowProductSaleModal открыто ли окно продажи товара
func (o Overlay) ShowProductSaleModal() bool {
	return o.kind == OverlayProductSale
}

// ShowCalendar открыт ли выбор даты
func (o Overlay) ShowCalendar() bool {
	return o.kind == OverlayDatePicker
}
